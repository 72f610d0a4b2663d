package reportroute_test

import (
	"context"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	reportroute "github.com/adstack-io/go-reportroute"
)

var _ = Describe("Backend selection", func() {
	var (
		ctx  context.Context
		soap *mockBackend
		rest *mockBackend
	)

	BeforeEach(func() {
		ctx = context.Background()
		soap = newMockBackend(reportroute.BackendSOAP)
		rest = newMockBackend(reportroute.BackendREST)
	})

	newRouter := func(opts ...reportroute.Option) *reportroute.Router {
		router, err := reportroute.New(soap, rest, append(fastOptions(), opts...)...)
		Expect(err).NotTo(HaveOccurred())
		return router
	}

	Describe("caller override", func() {
		It("wins over every other rule", func() {
			router := newRouter(reportroute.WithGlobalPreference(reportroute.BackendSOAP))

			_, err := router.Execute(ctx, reportroute.OpCreateReport, nil,
				reportroute.WithBackendOverride(reportroute.BackendREST))
			Expect(err).NotTo(HaveOccurred())
			Expect(rest.callCount()).To(Equal(1))
			Expect(soap.callCount()).To(BeZero())
		})

		It("is ignored when the operation does not support the backend", func() {
			catalog := reportroute.NewCatalog(map[reportroute.OperationID]reportroute.SupportEntry{
				reportroute.OpCreateReport: {Preferred: reportroute.BackendSOAP},
			})
			router := newRouter(reportroute.WithCatalog(catalog))

			_, err := router.Execute(ctx, reportroute.OpCreateReport, nil,
				reportroute.WithBackendOverride(reportroute.BackendREST))
			Expect(err).NotTo(HaveOccurred())
			Expect(soap.callCount()).To(Equal(1))
			Expect(rest.callCount()).To(BeZero())
		})
	})

	Describe("global preference", func() {
		It("steers supported operations", func() {
			router := newRouter(reportroute.WithGlobalPreference(reportroute.BackendREST))

			_, err := router.Execute(ctx, reportroute.OpCreateReport, nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(rest.callCount()).To(Equal(1))
			Expect(soap.callCount()).To(BeZero())
		})
	})

	Describe("metadata-only operations", func() {
		It("prefers the REST backend even against the catalog", func() {
			catalog := reportroute.NewCatalog(map[reportroute.OperationID]reportroute.SupportEntry{
				reportroute.OpGetDimensions: {
					Preferred:    reportroute.BackendSOAP,
					Fallback:     reportroute.BackendREST,
					MetadataOnly: true,
				},
			})
			router := newRouter(reportroute.WithCatalog(catalog))

			_, err := router.Execute(ctx, reportroute.OpGetDimensions, nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(rest.callCount()).To(Equal(1))
			Expect(soap.callCount()).To(BeZero())
		})
	})

	Describe("bulk and complex calls", func() {
		It("routes bulk-flagged calls to SOAP", func() {
			router := newRouter()

			_, err := router.Execute(ctx, reportroute.OpTestConnection, nil, reportroute.WithBulk())
			Expect(err).NotTo(HaveOccurred())
			Expect(soap.callCount()).To(Equal(1))
			Expect(rest.callCount()).To(BeZero())
		})

		It("detects bulk intent from a large limit argument", func() {
			router := newRouter(reportroute.WithBulkSizeThreshold(100))

			_, err := router.Execute(ctx, reportroute.OpTestConnection,
				reportroute.Arguments{"limit": 500})
			Expect(err).NotTo(HaveOccurred())
			Expect(soap.callCount()).To(Equal(1))
		})

		It("detects bulk intent from a long item list", func() {
			router := newRouter(reportroute.WithBulkSizeThreshold(3))

			_, err := router.Execute(ctx, reportroute.OpTestConnection,
				reportroute.Arguments{"ids": []string{"a", "b", "c", "d"}})
			Expect(err).NotTo(HaveOccurred())
			Expect(soap.callCount()).To(Equal(1))
		})

		It("routes high-complexity calls to SOAP", func() {
			router := newRouter(reportroute.WithComplexityThreshold(10))

			_, err := router.Execute(ctx, reportroute.OpTestConnection, nil,
				reportroute.WithComplexityScore(11))
			Expect(err).NotTo(HaveOccurred())
			Expect(soap.callCount()).To(Equal(1))
		})

		It("leaves small calls on the catalog-preferred backend", func() {
			router := newRouter(reportroute.WithBulkSizeThreshold(100))

			_, err := router.Execute(ctx, reportroute.OpTestConnection,
				reportroute.Arguments{"limit": 10})
			Expect(err).NotTo(HaveOccurred())
			Expect(rest.callCount()).To(Equal(1))
			Expect(soap.callCount()).To(BeZero())
		})
	})

	Describe("performance switchover", func() {
		newSwitchoverRouter := func() *reportroute.Router {
			router, err := reportroute.New(soap, rest,
				reportroute.WithMaxAttempts(1),
				reportroute.WithLinearBackoff(1, 10),
				reportroute.WithJitter(false),
				reportroute.WithFallback(false),
				reportroute.WithBreakerThreshold(1000),
				reportroute.WithMinSampleSize(2),
				reportroute.WithPerformanceThreshold(0.8),
				reportroute.WithLogger(quietLogger()),
			)
			Expect(err).NotTo(HaveOccurred())
			return router
		}

		It("prefers the other backend once the success rate drops", func() {
			router := newSwitchoverRouter()
			soap.alwaysFail(errors.New("soap is down"))

			// Two failed calls against SOAP reach the sample floor with a
			// zero success rate.
			for i := 0; i < 2; i++ {
				_, err := router.Execute(ctx, reportroute.OpCreateReport, nil)
				Expect(err).To(HaveOccurred())
			}
			Expect(soap.callCount()).To(Equal(2))

			_, err := router.Execute(ctx, reportroute.OpCreateReport, nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(rest.callCount()).To(Equal(1))
			Expect(soap.callCount()).To(Equal(2))
		})

		It("waits for the minimum sample size", func() {
			router := newSwitchoverRouter()
			soap.alwaysFail(errors.New("soap is down"))

			_, err := router.Execute(ctx, reportroute.OpCreateReport, nil)
			Expect(err).To(HaveOccurred())

			// One sample is below the floor, so SOAP is still preferred.
			_, err = router.Execute(ctx, reportroute.OpCreateReport, nil)
			Expect(err).To(HaveOccurred())
			Expect(soap.callCount()).To(Equal(2))
			Expect(rest.callCount()).To(BeZero())
		})
	})

	Describe("single-backend operations", func() {
		It("never invokes a second backend when the entry has no fallback", func() {
			catalog := reportroute.NewCatalog(map[reportroute.OperationID]reportroute.SupportEntry{
				reportroute.OpRunReport: {Preferred: reportroute.BackendSOAP},
			})
			router := newRouter(reportroute.WithCatalog(catalog))
			soap.alwaysFail(errors.New("soap is down"))

			_, err := router.Execute(ctx, reportroute.OpRunReport, nil)
			Expect(err).To(HaveOccurred())

			var aggregate *reportroute.AggregateError
			Expect(errors.As(err, &aggregate)).To(BeFalse())
			Expect(rest.callCount()).To(BeZero())
			Expect(soap.callCount()).To(Equal(3)) // all attempts stay on SOAP
		})
	})
})
