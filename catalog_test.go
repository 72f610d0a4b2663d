package reportroute_test

import (
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	reportroute "github.com/adstack-io/go-reportroute"
)

var _ = Describe("Catalog", func() {
	var catalog *reportroute.Catalog

	BeforeEach(func() {
		catalog = reportroute.DefaultCatalog()
	})

	It("has an entry for every operation", func() {
		ops := []reportroute.OperationID{
			reportroute.OpCreateReport,
			reportroute.OpRunReport,
			reportroute.OpFetchRows,
			reportroute.OpListReports,
			reportroute.OpGetLineItems,
			reportroute.OpGetDimensions,
			reportroute.OpGetMetrics,
			reportroute.OpTestConnection,
		}
		for _, op := range ops {
			entry, err := catalog.Entry(op)
			Expect(err).NotTo(HaveOccurred(), string(op))
			Expect(entry.Preferred).NotTo(BeEmpty(), string(op))
		}
		Expect(catalog.Operations()).To(HaveLen(len(ops)))
	})

	It("rejects unknown operations", func() {
		_, err := catalog.Entry("delete-everything")
		Expect(err).To(HaveOccurred())
		Expect(errors.Is(err, reportroute.ErrUnknownOperation)).To(BeTrue())
	})

	It("marks schema lookups metadata-only", func() {
		for _, op := range []reportroute.OperationID{
			reportroute.OpListReports,
			reportroute.OpGetDimensions,
			reportroute.OpGetMetrics,
		} {
			entry, err := catalog.Entry(op)
			Expect(err).NotTo(HaveOccurred())
			Expect(entry.MetadataOnly).To(BeTrue(), string(op))
		}
	})

	It("prefers SOAP for report lifecycle operations", func() {
		for _, op := range []reportroute.OperationID{
			reportroute.OpCreateReport,
			reportroute.OpRunReport,
			reportroute.OpFetchRows,
			reportroute.OpGetLineItems,
		} {
			entry, err := catalog.Entry(op)
			Expect(err).NotTo(HaveOccurred())
			Expect(entry.Preferred).To(Equal(reportroute.BackendSOAP), string(op))
		}
	})

	Describe("SupportEntry", func() {
		It("reports supported backends and their counterpart", func() {
			entry := reportroute.SupportEntry{
				Preferred: reportroute.BackendSOAP,
				Fallback:  reportroute.BackendREST,
			}
			Expect(entry.Supports(reportroute.BackendSOAP)).To(BeTrue())
			Expect(entry.Supports(reportroute.BackendREST)).To(BeTrue())
			Expect(entry.Other(reportroute.BackendSOAP)).To(Equal(reportroute.BackendREST))
			Expect(entry.Other(reportroute.BackendREST)).To(Equal(reportroute.BackendSOAP))
		})

		It("handles single-backend entries", func() {
			entry := reportroute.SupportEntry{Preferred: reportroute.BackendSOAP}
			Expect(entry.Supports(reportroute.BackendREST)).To(BeFalse())
			Expect(entry.Supports("")).To(BeFalse())
			Expect(entry.Other(reportroute.BackendSOAP)).To(BeEmpty())
		})
	})
})
