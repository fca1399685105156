package invoiceRepo

import (
	"context"
	"fmt"
	"time"

	"github.com/mouhaned372/facture-digitalisation/config"
	"github.com/mouhaned372/facture-digitalisation/database"
	"github.com/mouhaned372/facture-digitalisation/models"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoInvoiceRepo implements InvoiceRepository using MongoDB.
type MongoInvoiceRepo struct {
	coll *mongo.Collection
}

// NewMongoInvoiceRepo creates a new instance of InvoiceRepository using MongoDB.
func NewMongoInvoiceRepo() InvoiceRepository {
	coll := database.MongoClient.Database(config.AppConfig.DatabaseName).Collection("invoices")
	repo := &MongoInvoiceRepo{coll: coll}

	if err := repo.ensureIndexes(); err != nil {
		fmt.Printf("failed to create invoice indexes: %v\n", err)
	}
	return repo
}

// ensureIndexes creates the unique invoice_number constraint and the
// secondary indexes backing the overdue sweep and list filters.
func (r *MongoInvoiceRepo) ensureIndexes() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	indexModels := []mongo.IndexModel{
		{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "invoice_number", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "payment_status", Value: 1}, {Key: "due_date_sort", Value: 1}}},
		{Keys: bson.D{{Key: "created_by", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "supplier.name", Value: 1}}},
		{Keys: bson.D{{Key: "total_amount", Value: 1}}},
	}

	_, err := r.coll.Indexes().CreateMany(ctx, indexModels)
	if err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}
	return nil
}

// prepare validates the invoice and refreshes its derived sort keys.
func prepare(inv *models.Invoice) error {
	if err := inv.Validate(); err != nil {
		return err
	}
	sortKey, err := models.SortableDate(inv.InvoiceDate)
	if err != nil {
		return &models.ValidationError{Field: "invoiceDate", Reason: "must be a valid DD/MM/YYYY date"}
	}
	inv.InvoiceDateSort = sortKey
	inv.DueDateSort = ""
	if inv.DueDate != "" {
		sortKey, err = models.SortableDate(inv.DueDate)
		if err != nil {
			return &models.ValidationError{Field: "dueDate", Reason: "must be a valid DD/MM/YYYY date"}
		}
		inv.DueDateSort = sortKey
	}
	return nil
}

func (r *MongoInvoiceRepo) Create(ctx context.Context, inv *models.Invoice) error {
	if inv.ID == "" {
		inv.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	inv.CreatedAt = now
	inv.UpdatedAt = now
	if err := prepare(inv); err != nil {
		return err
	}

	if _, err := r.coll.InsertOne(ctx, inv); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("create invoice %s: %w", inv.InvoiceNumber, ErrDuplicateNumber)
		}
		return fmt.Errorf("failed to create invoice: %w", err)
	}
	return nil
}

func (r *MongoInvoiceRepo) GetByID(ctx context.Context, id string) (*models.Invoice, error) {
	var inv models.Invoice
	if err := r.coll.FindOne(ctx, bson.M{"id": id}).Decode(&inv); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to fetch invoice %s: %w", id, err)
	}
	return &inv, nil
}

func (r *MongoInvoiceRepo) GetAll(ctx context.Context, filter ListFilter) ([]models.Invoice, error) {
	query := bson.M{}
	if filter.CreatedBy != "" {
		query["created_by"] = filter.CreatedBy
	}
	if filter.Type != "" {
		query["type"] = filter.Type
	}

	dateRange := bson.M{}
	if filter.StartDate != "" {
		start, err := models.SortableDate(filter.StartDate)
		if err != nil {
			return nil, &models.ValidationError{Field: "startDate", Reason: "must be a valid DD/MM/YYYY date"}
		}
		dateRange["$gte"] = start
	}
	if filter.EndDate != "" {
		end, err := models.SortableDate(filter.EndDate)
		if err != nil {
			return nil, &models.ValidationError{Field: "endDate", Reason: "must be a valid DD/MM/YYYY date"}
		}
		dateRange["$lte"] = end
	}
	if len(dateRange) > 0 {
		query["invoice_date_sort"] = dateRange
	}

	amountRange := bson.M{}
	if filter.MinAmount != nil {
		amountRange["$gte"] = *filter.MinAmount
	}
	if filter.MaxAmount != nil {
		amountRange["$lte"] = *filter.MaxAmount
	}
	if len(amountRange) > 0 {
		query["total_amount"] = amountRange
	}

	// Default: newest first by creation time.
	sort := bson.D{{Key: "created_at", Value: -1}}
	switch filter.SortBy {
	case SortDateAsc:
		sort = bson.D{{Key: "created_at", Value: 1}}
	case SortAmountDesc:
		sort = bson.D{{Key: "total_amount", Value: -1}}
	case SortAmountAsc:
		sort = bson.D{{Key: "total_amount", Value: 1}}
	case SortType:
		sort = bson.D{{Key: "type", Value: 1}}
	}

	cursor, err := r.coll.Find(ctx, query, options.Find().SetSort(sort))
	if err != nil {
		return nil, fmt.Errorf("failed to list invoices: %w", err)
	}
	defer cursor.Close(ctx)

	var invoices []models.Invoice
	if err := cursor.All(ctx, &invoices); err != nil {
		return nil, fmt.Errorf("failed to decode invoices: %w", err)
	}
	return invoices, nil
}

func (r *MongoInvoiceRepo) Update(ctx context.Context, inv *models.Invoice) error {
	inv.UpdatedAt = time.Now().UTC()
	if err := prepare(inv); err != nil {
		return err
	}

	result, err := r.coll.ReplaceOne(ctx, bson.M{"id": inv.ID}, inv)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("update invoice %s: %w", inv.InvoiceNumber, ErrDuplicateNumber)
		}
		return fmt.Errorf("failed to update invoice %s: %w", inv.ID, err)
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *MongoInvoiceRepo) Delete(ctx context.Context, id string) error {
	result, err := r.coll.DeleteOne(ctx, bson.M{"id": id})
	if err != nil {
		return fmt.Errorf("failed to delete invoice %s: %w", id, err)
	}
	if result.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *MongoInvoiceRepo) ExistsByNumber(ctx context.Context, number string) (bool, error) {
	count, err := r.coll.CountDocuments(ctx, bson.M{"invoice_number": number}, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("failed to check invoice number %q: %w", number, err)
	}
	return count > 0, nil
}

func (r *MongoInvoiceRepo) FindOverdue(ctx context.Context, today time.Time) ([]models.Invoice, error) {
	query := bson.M{
		"payment_status": models.PaymentStatusPending,
		// $gt "" excludes invoices with no due date.
		"due_date_sort": bson.M{"$gt": "", "$lt": models.SortableDay(today)},
	}

	cursor, err := r.coll.Find(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query overdue invoices: %w", err)
	}
	defer cursor.Close(ctx)

	var invoices []models.Invoice
	if err := cursor.All(ctx, &invoices); err != nil {
		return nil, fmt.Errorf("failed to decode overdue invoices: %w", err)
	}
	return invoices, nil
}
