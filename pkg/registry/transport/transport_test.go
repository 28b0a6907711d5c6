package transport_test

import (
	"bytes"
	"context"
	"net/http"
	"time"

	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"
	"github.com/onsi/gomega/ghttp"
	"github.com/sirupsen/logrus"

	"github.com/nicholas-fedor/docker-registry/pkg/registry/transport"
	"github.com/nicholas-fedor/docker-registry/pkg/types"
)

type observation struct {
	method string
	status int
}

type recordingObserver struct {
	observations []observation
}

func (o *recordingObserver) ObserveRequest(method string, statusCode int, _ time.Duration) {
	o.observations = append(o.observations, observation{method: method, status: statusCode})
}

var _ = ginkgo.Describe("the transport client", func() {
	var (
		server   *ghttp.Server
		client   *transport.Client
		observer *recordingObserver
		logs     *bytes.Buffer
		creds    *types.RegistryCredentials
		ctx      context.Context
	)

	ginkgo.BeforeEach(func() {
		server = ghttp.NewServer()
		observer = &recordingObserver{}
		logs = &bytes.Buffer{}
		creds = &types.RegistryCredentials{Username: "bob", Password: "s3cr3t-value"}
		ctx = context.Background()

		logger := logrus.New()
		logger.SetOutput(logs)
		logger.SetLevel(logrus.TraceLevel)

		var err error
		client, err = transport.NewClient(transport.Options{
			Timeout:  5 * time.Second,
			Logger:   logger,
			Observer: observer,
		})
		gomega.Expect(err).NotTo(gomega.HaveOccurred())
	})

	ginkgo.AfterEach(func() {
		server.Close()
	})

	ginkgo.It("should send basic auth, headers, and the user agent", func() {
		server.AppendHandlers(ghttp.CombineHandlers(
			ghttp.VerifyRequest(http.MethodGet, "/v2/"),
			ghttp.VerifyBasicAuth("bob", "s3cr3t-value"),
			ghttp.VerifyHeaderKV("Accept", "application/json"),
			ghttp.VerifyHeaderKV("User-Agent", transport.UserAgent),
			ghttp.RespondWith(http.StatusOK, `{"ok":true}`, http.Header{"X-Test": []string{"yes"}}),
		))

		resp, err := client.Do(ctx, http.MethodGet, server.URL()+"/v2/", map[string]string{"Accept": "application/json"}, creds)
		gomega.Expect(err).NotTo(gomega.HaveOccurred())
		gomega.Expect(resp.StatusCode).To(gomega.Equal(http.StatusOK))
		gomega.Expect(resp.Body).To(gomega.MatchJSON(`{"ok":true}`))
		gomega.Expect(resp.Header.Get("X-Test")).To(gomega.Equal("yes"))
	})

	ginkgo.It("should omit the authorization header without credentials", func() {
		server.AppendHandlers(func(_ http.ResponseWriter, r *http.Request) {
			gomega.Expect(r.Header.Get("Authorization")).To(gomega.BeEmpty())
		})

		_, err := client.Do(ctx, http.MethodGet, server.URL()+"/v2/", nil, nil)
		gomega.Expect(err).NotTo(gomega.HaveOccurred())
	})

	ginkgo.It("should return non-success responses unmodified", func() {
		server.AppendHandlers(ghttp.RespondWith(http.StatusNotFound, "missing"))

		resp, err := client.Do(ctx, http.MethodGet, server.URL()+"/v2/", nil, creds)
		gomega.Expect(err).NotTo(gomega.HaveOccurred())
		gomega.Expect(resp.StatusCode).To(gomega.Equal(http.StatusNotFound))
		gomega.Expect(string(resp.Body)).To(gomega.Equal("missing"))
	})

	ginkgo.It("should issue DELETE requests", func() {
		server.AppendHandlers(ghttp.CombineHandlers(
			ghttp.VerifyRequest(http.MethodDelete, "/v2/app/manifests/sha256:abc/"),
			ghttp.RespondWith(http.StatusAccepted, ""),
		))

		resp, err := client.Do(ctx, http.MethodDelete, server.URL()+"/v2/app/manifests/sha256:abc/", nil, creds)
		gomega.Expect(err).NotTo(gomega.HaveOccurred())
		gomega.Expect(resp.StatusCode).To(gomega.Equal(http.StatusAccepted))
	})

	ginkgo.It("should refuse methods other than GET and DELETE", func() {
		_, err := client.Do(ctx, http.MethodPut, server.URL()+"/v2/", nil, creds)
		gomega.Expect(err).To(gomega.MatchError(types.ErrTransport))
		gomega.Expect(server.ReceivedRequests()).To(gomega.BeEmpty())
	})

	ginkgo.It("should report connection failures with status 0", func() {
		url := server.URL() + "/v2/"
		server.Close()

		_, err := client.Do(ctx, http.MethodGet, url, nil, creds)
		gomega.Expect(err).To(gomega.MatchError(types.ErrTransport))

		var regErr *types.RegistryError
		gomega.Expect(err).To(gomega.BeAssignableToTypeOf(regErr))
		gomega.Expect(err.(*types.RegistryError).StatusCode).To(gomega.BeZero()) //nolint:errorlint,forcetypeassert
		gomega.Expect(observer.observations).To(gomega.Equal([]observation{{method: http.MethodGet, status: 0}}))
	})

	ginkgo.It("should honor context cancellation", func() {
		cancelled, cancel := context.WithCancel(ctx)
		cancel()

		_, err := client.Do(cancelled, http.MethodGet, server.URL()+"/v2/", nil, creds)
		gomega.Expect(err).To(gomega.MatchError(types.ErrTransport))
		gomega.Expect(err).To(gomega.MatchError(context.Canceled))
	})

	ginkgo.It("should notify the observer of each request", func() {
		server.AppendHandlers(
			ghttp.RespondWith(http.StatusOK, ""),
			ghttp.RespondWith(http.StatusUnauthorized, ""),
		)

		_, err := client.Do(ctx, http.MethodGet, server.URL()+"/v2/", nil, creds)
		gomega.Expect(err).NotTo(gomega.HaveOccurred())
		_, err = client.Do(ctx, http.MethodGet, server.URL()+"/v2/", nil, creds)
		gomega.Expect(err).NotTo(gomega.HaveOccurred())

		gomega.Expect(observer.observations).To(gomega.Equal([]observation{
			{method: http.MethodGet, status: http.StatusOK},
			{method: http.MethodGet, status: http.StatusUnauthorized},
		}))
	})

	ginkgo.It("should never log the password", func() {
		server.AppendHandlers(ghttp.RespondWith(http.StatusOK, `{"repositories":[]}`))

		_, err := client.Do(ctx, http.MethodGet, server.URL()+"/v2/_catalog/", nil, creds)
		gomega.Expect(err).NotTo(gomega.HaveOccurred())

		gomega.Expect(logs.String()).To(gomega.ContainSubstring("bob"))
		gomega.Expect(logs.String()).To(gomega.ContainSubstring("repositories"))
		gomega.Expect(logs.String()).NotTo(gomega.ContainSubstring("s3cr3t-value"))
	})

	ginkgo.It("should fail to build a client with an unreadable CA file", func() {
		_, err := transport.NewClient(transport.Options{CAFile: "/nonexistent/ca.pem"})
		gomega.Expect(err).To(gomega.HaveOccurred())
	})

	ginkgo.It("should use a supplied HTTP client", func() {
		server.AppendHandlers(ghttp.RespondWith(http.StatusOK, ""))

		custom, err := transport.NewClient(transport.Options{HTTPClient: server.HTTPTestServer.Client()})
		gomega.Expect(err).NotTo(gomega.HaveOccurred())

		resp, err := custom.Do(ctx, http.MethodGet, server.URL()+"/v2/", nil, nil)
		gomega.Expect(err).NotTo(gomega.HaveOccurred())
		gomega.Expect(resp.StatusCode).To(gomega.Equal(http.StatusOK))
	})
})
