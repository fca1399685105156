package extraction

import (
	"context"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("EnsureUniqueNumber", func() {
	var ctx context.Context

	BeforeEach(func() {
		ctx = context.Background()
	})

	existsIn := func(taken ...string) ExistsFunc {
		set := map[string]bool{}
		for _, n := range taken {
			set[n] = true
		}
		return func(_ context.Context, number string) (bool, error) {
			return set[number], nil
		}
	}

	When("the number is free", func() {
		It("returns it unchanged", func() {
			number, err := EnsureUniqueNumber(ctx, "INV-100", existsIn())
			Expect(err).NotTo(HaveOccurred())
			Expect(number).To(Equal("INV-100"))
		})
	})

	When("the number and its first suffixes are taken", func() {
		It("returns the first free suffix", func() {
			number, err := EnsureUniqueNumber(ctx, "A", existsIn("A", "A-1", "A-2"))
			Expect(err).NotTo(HaveOccurred())
			Expect(number).To(Equal("A-3"))
		})
	})

	When("only the base collides", func() {
		It("appends -1", func() {
			number, err := EnsureUniqueNumber(ctx, "INV-100", existsIn("INV-100"))
			Expect(err).NotTo(HaveOccurred())
			Expect(number).To(Equal("INV-100-1"))
		})
	})

	When("the existence check fails", func() {
		It("propagates the error", func() {
			boom := errors.New("store unavailable")
			_, err := EnsureUniqueNumber(ctx, "A", func(context.Context, string) (bool, error) {
				return false, boom
			})
			Expect(err).To(MatchError(boom))
		})
	})

	When("every candidate collides", func() {
		It("gives up after the attempt guard", func() {
			calls := 0
			_, err := EnsureUniqueNumber(ctx, "A", func(context.Context, string) (bool, error) {
				calls++
				return true, nil
			})
			Expect(err).To(HaveOccurred())
			Expect(calls).To(Equal(1000))
		})
	})
})
