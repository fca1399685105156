package models

import "time"

// User is an account that owns uploaded invoices and receives push
// notifications about them.
type User struct {
	ID       string `bson:"id" json:"id"`
	Email    string `bson:"email" json:"email"`
	Password string `bson:"password" json:"-"`
	Name     string `bson:"name,omitempty" json:"name,omitempty"`

	// FCMToken is the device token used for push delivery; empty when the
	// user never registered a device.
	FCMToken string `bson:"fcm_token,omitempty" json:"-"`

	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time `bson:"updated_at" json:"updatedAt"`
}
