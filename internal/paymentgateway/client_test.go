package paymentgateway_test

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/shopspring/decimal"

	"github.com/tsegaye/travel-listings/internal/paymentgateway"
)

func TestPaymentGateway(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Payment Gateway Suite")
}

var _ = Describe("Client", func() {
	var logger *slog.Logger

	BeforeEach(func() {
		logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	})

	newClient := func(baseURL string) *paymentgateway.Client {
		return paymentgateway.NewClient(paymentgateway.Config{
			BaseURL:     baseURL,
			SecretKey:   "test-secret",
			CallbackURL: "https://travel.local/api/v1/payments/callback",
			ReturnURL:   "https://travel.local/payments/done",
			Timeout:     2 * time.Second,
		}, logger)
	}

	initReq := func() paymentgateway.InitializeRequest {
		return paymentgateway.InitializeRequest{
			Amount:    decimal.NewFromInt(7000),
			Currency:  "ETB",
			Email:     "guest@travel.local",
			FirstName: "Girum",
			LastName:  "Guest",
			TxRef:     "tx-abc",
		}
	}

	Describe("Initialize", func() {
		Context("when the gateway accepts the transaction", func() {
			It("should return an OK result with the raw payload", func() {
				var gotAuth string
				var gotBody paymentgateway.InitializeRequest

				server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					gotAuth = r.Header.Get("Authorization")
					Expect(r.URL.Path).To(Equal("/v1/transaction/initialize"))
					Expect(json.NewDecoder(r.Body).Decode(&gotBody)).To(Succeed())

					w.Header().Set("Content-Type", "application/json")
					w.Write([]byte(`{"status":"success","message":"Hosted Link","data":{"checkout_url":"https://checkout.test/tx-abc"}}`))
				}))
				defer server.Close()

				result, err := newClient(server.URL).Initialize(context.Background(), initReq())

				Expect(err).ToNot(HaveOccurred())
				Expect(result.OK).To(BeTrue())
				Expect(result.Status).To(Equal("success"))
				Expect(string(result.Raw)).To(ContainSubstring("checkout_url"))

				Expect(gotAuth).To(Equal("Bearer test-secret"))
				Expect(gotBody.TxRef).To(Equal("tx-abc"))
				Expect(gotBody.CallbackURL).To(Equal("https://travel.local/api/v1/payments/callback"))
				Expect(gotBody.ReturnURL).To(Equal("https://travel.local/payments/done"))
			})
		})

		Context("when the gateway answers 2xx with a failure status", func() {
			It("should return a non-OK result without an error", func() {
				server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					w.Write([]byte(`{"status":"failed","message":"invalid currency"}`))
				}))
				defer server.Close()

				result, err := newClient(server.URL).Initialize(context.Background(), initReq())

				Expect(err).ToNot(HaveOccurred())
				Expect(result.OK).To(BeFalse())
				Expect(result.Status).To(Equal("failed"))
			})
		})

		Context("when the gateway returns a non-2xx status", func() {
			It("should return a TransportError", func() {
				server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					w.WriteHeader(http.StatusBadGateway)
				}))
				defer server.Close()

				result, err := newClient(server.URL).Initialize(context.Background(), initReq())

				Expect(result).To(BeNil())
				var transportErr *paymentgateway.TransportError
				Expect(errors.As(err, &transportErr)).To(BeTrue())
			})
		})

		Context("when the gateway is unreachable", func() {
			It("should return a TransportError", func() {
				server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
				server.Close()

				result, err := newClient(server.URL).Initialize(context.Background(), initReq())

				Expect(result).To(BeNil())
				var transportErr *paymentgateway.TransportError
				Expect(errors.As(err, &transportErr)).To(BeTrue())
			})
		})

		Context("when the gateway answers with a malformed body", func() {
			It("should return a TransportError", func() {
				server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					w.Write([]byte(`<html>not json</html>`))
				}))
				defer server.Close()

				result, err := newClient(server.URL).Initialize(context.Background(), initReq())

				Expect(result).To(BeNil())
				var transportErr *paymentgateway.TransportError
				Expect(errors.As(err, &transportErr)).To(BeTrue())
			})
		})
	})

	Describe("Verify", func() {
		Context("when the transaction completed", func() {
			It("should return an OK result", func() {
				server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					Expect(r.Method).To(Equal(http.MethodGet))
					Expect(r.URL.Path).To(Equal("/v1/transaction/verify/tx-abc"))
					Expect(r.Header.Get("Authorization")).To(Equal("Bearer test-secret"))

					w.Write([]byte(`{"status":"success","message":"verified","data":{"amount":7000}}`))
				}))
				defer server.Close()

				result, err := newClient(server.URL).Verify(context.Background(), "tx-abc")

				Expect(err).ToNot(HaveOccurred())
				Expect(result.OK).To(BeTrue())
			})
		})

		Context("when the transaction was declined", func() {
			It("should carry the gateway's verdict", func() {
				server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					w.Write([]byte(`{"status":"declined","message":"card declined"}`))
				}))
				defer server.Close()

				result, err := newClient(server.URL).Verify(context.Background(), "tx-abc")

				Expect(err).ToNot(HaveOccurred())
				Expect(result.OK).To(BeFalse())
				Expect(result.Status).To(Equal("declined"))
			})
		})

		Context("when the request times out", func() {
			It("should return a TransportError", func() {
				server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					time.Sleep(200 * time.Millisecond)
					w.Write([]byte(`{"status":"success"}`))
				}))
				defer server.Close()

				client := paymentgateway.NewClient(paymentgateway.Config{
					BaseURL:   server.URL,
					SecretKey: "test-secret",
					Timeout:   50 * time.Millisecond,
				}, logger)

				result, err := client.Verify(context.Background(), "tx-abc")

				Expect(result).To(BeNil())
				var transportErr *paymentgateway.TransportError
				Expect(errors.As(err, &transportErr)).To(BeTrue())
			})
		})
	})
})
