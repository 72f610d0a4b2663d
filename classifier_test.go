package reportroute_test

import (
	"context"
	"errors"
	"net"
	"time"

	pkgerrors "github.com/JohnPlummer/jp-go-errors"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	reportroute "github.com/adstack-io/go-reportroute"
)

// timeoutNetError implements net.Error with Timeout() == true.
type timeoutNetError struct{}

func (timeoutNetError) Error() string   { return "i/o timeout" }
func (timeoutNetError) Timeout() bool   { return true }
func (timeoutNetError) Temporary() bool { return true }

var _ = Describe("DefaultClassifier", func() {
	var classifier *reportroute.DefaultClassifier

	BeforeEach(func() {
		classifier = reportroute.NewDefaultClassifier()
	})

	Describe("authentication failures", func() {
		It("classifies 401 and 403 status codes", func() {
			for _, code := range []int{401, 403} {
				err := reportroute.NewStatusCodeError(code, errors.New("denied"))
				Expect(classifier.Classify(err)).To(Equal(reportroute.CategoryAuthentication))
			}
		})
	})

	Describe("quota failures", func() {
		It("classifies 429 status codes", func() {
			err := reportroute.NewStatusCodeError(429, errors.New("too many requests"))
			Expect(classifier.Classify(err)).To(Equal(reportroute.CategoryQuota))
		})

		It("classifies the rate-limited sentinel", func() {
			Expect(classifier.Classify(pkgerrors.ErrRateLimited)).To(Equal(reportroute.CategoryQuota))
		})
	})

	Describe("network failures", func() {
		It("classifies connection errors", func() {
			err := &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("connection refused")}
			Expect(classifier.Classify(err)).To(Equal(reportroute.CategoryNetwork))
		})

		It("classifies wrapped connection errors", func() {
			inner := &net.OpError{Op: "read", Net: "tcp", Err: errors.New("connection reset by peer")}
			Expect(classifier.Classify(errors.Join(errors.New("call failed"), inner))).
				To(Equal(reportroute.CategoryNetwork))
		})
	})

	Describe("timeouts", func() {
		It("classifies context deadline errors", func() {
			Expect(classifier.Classify(context.DeadlineExceeded)).To(Equal(reportroute.CategoryTimeout))
		})

		It("classifies timeout sentinel errors", func() {
			err := pkgerrors.NewTimeoutError("operation timeout", "run-report", 5*time.Second)
			Expect(classifier.Classify(err)).To(Equal(reportroute.CategoryTimeout))
		})

		It("classifies net errors reporting a timeout", func() {
			Expect(classifier.Classify(timeoutNetError{})).To(Equal(reportroute.CategoryTimeout))
		})

		It("classifies 408 and 504 status codes", func() {
			for _, code := range []int{408, 504} {
				err := reportroute.NewStatusCodeError(code, errors.New("slow"))
				Expect(classifier.Classify(err)).To(Equal(reportroute.CategoryTimeout))
			}
		})
	})

	Describe("invalid requests", func() {
		It("classifies client-error status codes", func() {
			for _, code := range []int{400, 404, 422} {
				err := reportroute.NewStatusCodeError(code, errors.New("bad request"))
				Expect(classifier.Classify(err)).To(Equal(reportroute.CategoryInvalidRequest))
			}
		})
	})

	Describe("residual failures", func() {
		It("classifies 5xx status codes as internal", func() {
			for _, code := range []int{500, 502, 503} {
				err := reportroute.NewStatusCodeError(code, errors.New("boom"))
				Expect(classifier.Classify(err)).To(Equal(reportroute.CategoryInternal))
			}
		})

		It("classifies plain errors as internal", func() {
			Expect(classifier.Classify(errors.New("something broke"))).
				To(Equal(reportroute.CategoryInternal))
		})

		It("never fails on nil", func() {
			Expect(classifier.Classify(nil)).To(Equal(reportroute.CategoryInternal))
		})
	})

	Describe("adapter-supplied categories", func() {
		It("takes precedence over heuristics", func() {
			err := &reportroute.BackendError{
				Backend:  reportroute.BackendSOAP,
				Op:       reportroute.OpRunReport,
				Category: reportroute.CategoryQuota,
				Code:     500, // would classify as internal on its own
				Err:      errors.New("quota exceeded"),
			}
			Expect(classifier.Classify(err)).To(Equal(reportroute.CategoryQuota))
		})

		It("falls back to heuristics when the category is unset", func() {
			err := &reportroute.BackendError{
				Backend: reportroute.BackendSOAP,
				Op:      reportroute.OpRunReport,
				Code:    403,
				Err:     errors.New("forbidden"),
			}
			Expect(classifier.Classify(err)).To(Equal(reportroute.CategoryAuthentication))
		})
	})
})
