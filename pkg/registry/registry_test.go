package registry_test

import (
	"context"
	"net/http"

	cerrdefs "github.com/containerd/errdefs"
	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"
	"github.com/onsi/gomega/ghttp"
	"github.com/sirupsen/logrus"

	"github.com/nicholas-fedor/docker-registry/pkg/registry"
	"github.com/nicholas-fedor/docker-registry/pkg/registry/digest"
	"github.com/nicholas-fedor/docker-registry/pkg/registry/transport"
	"github.com/nicholas-fedor/docker-registry/pkg/types"
)

const (
	testUser     = "bob"
	testPassword = "hunter2"
	testImage    = "library/alpine"
)

var _ = ginkgo.Describe("the registry client", func() {
	var (
		server *ghttp.Server
		client *registry.Client
		cmdCtx *types.CommandContext
		domain string
		ctx    context.Context
	)

	ginkgo.BeforeEach(func() {
		server = ghttp.NewServer()
		domain = server.Addr()
		ctx = context.Background()

		logger := logrus.New()
		logger.SetOutput(ginkgo.GinkgoWriter)

		requestor, err := transport.NewClient(transport.Options{Logger: logger})
		gomega.Expect(err).NotTo(gomega.HaveOccurred())

		client = registry.NewClient(requestor, logger)
		cmdCtx = &types.CommandContext{
			Credentials: types.RegistryCredentials{Username: testUser, Password: testPassword},
			Protocol:    "http",
		}
	})

	ginkgo.AfterEach(func() {
		server.Close()
	})

	ginkgo.Describe("the v2 version check", func() {
		ginkgo.It("should succeed on 200 and send basic auth", func() {
			server.AppendHandlers(ghttp.CombineHandlers(
				ghttp.VerifyRequest(http.MethodGet, "/v2/"),
				ghttp.VerifyBasicAuth(testUser, testPassword),
				ghttp.RespondWith(http.StatusOK, "{}"),
			))

			gomega.Expect(client.CheckV2Supported(ctx, domain, cmdCtx)).To(gomega.Succeed())
			gomega.Expect(server.ReceivedRequests()).To(gomega.HaveLen(1))
		})

		ginkgo.It("should report an unsupported API on 404", func() {
			server.AppendHandlers(ghttp.RespondWith(http.StatusNotFound, ""))

			err := client.CheckV2Supported(ctx, domain, cmdCtx)
			gomega.Expect(err).To(gomega.MatchError(types.ErrUnsupportedAPI))
			gomega.Expect(err).To(gomega.MatchError(cerrdefs.ErrNotImplemented))
			gomega.Expect(err).NotTo(gomega.MatchError(types.ErrTransport))
			gomega.Expect(err.Error()).To(gomega.Equal("The Docker v2 API is not supported."))
		})

		ginkgo.It("should reject credentials on 401", func() {
			server.AppendHandlers(ghttp.RespondWith(http.StatusUnauthorized, ""))

			err := client.CheckV2Supported(ctx, domain, cmdCtx)
			gomega.Expect(err).To(gomega.MatchError(types.ErrInvalidCredentials))
			gomega.Expect(cerrdefs.IsUnauthorized(err)).To(gomega.BeTrue())
		})

		ginkgo.It("should reject credentials on 402", func() {
			server.AppendHandlers(ghttp.RespondWith(http.StatusPaymentRequired, ""))

			err := client.CheckV2Supported(ctx, domain, cmdCtx)
			gomega.Expect(err).To(gomega.MatchError(types.ErrInvalidCredentials))
			gomega.Expect(types.KindOf(err)).To(gomega.Equal(types.KindAuth))
		})

		ginkgo.It("should use the default protocol when none is set", func() {
			cmdCtx.Protocol = ""
			server.AllowUnhandledRequests = true

			err := client.CheckV2Supported(ctx, domain, cmdCtx)
			gomega.Expect(err).To(gomega.MatchError(types.ErrTransport))
		})
	})

	ginkgo.Describe("listing images", func() {
		ginkgo.It("should return the repositories in order", func() {
			server.AppendHandlers(ghttp.CombineHandlers(
				ghttp.VerifyRequest(http.MethodGet, "/v2/_catalog/"),
				ghttp.RespondWith(http.StatusOK, `{"repositories":["a","b"]}`),
			))

			images, err := client.ListImages(ctx, domain, cmdCtx)
			gomega.Expect(err).NotTo(gomega.HaveOccurred())
			gomega.Expect(images).To(gomega.Equal([]string{"a", "b"}))
		})

		ginkgo.It("should return an empty list for an empty registry", func() {
			server.AppendHandlers(ghttp.RespondWith(http.StatusOK, `{"repositories":[]}`))

			images, err := client.ListImages(ctx, domain, cmdCtx)
			gomega.Expect(err).NotTo(gomega.HaveOccurred())
			gomega.Expect(images).NotTo(gomega.BeNil())
			gomega.Expect(images).To(gomega.BeEmpty())
		})

		ginkgo.DescribeTable("should report malformed catalogs as parse errors",
			func(body string) {
				server.AppendHandlers(ghttp.RespondWith(http.StatusOK, body))

				images, err := client.ListImages(ctx, domain, cmdCtx)
				gomega.Expect(images).To(gomega.BeNil())
				gomega.Expect(err).To(gomega.MatchError(types.ErrParse))
				gomega.Expect(cerrdefs.IsDataLoss(err)).To(gomega.BeTrue())
			},
			ginkgo.Entry("missing field", `{}`),
			ginkgo.Entry("null field", `{"repositories":null}`),
			ginkgo.Entry("wrong element type", `{"repositories":[1,2]}`),
			ginkgo.Entry("null element", `{"repositories":["a",null]}`),
			ginkgo.Entry("only null elements", `{"repositories":[null]}`),
			ginkgo.Entry("not an object", `["a"]`),
			ginkgo.Entry("not json", `<html></html>`),
		)

		ginkgo.It("should map other statuses to their reason phrase", func() {
			server.AppendHandlers(ghttp.RespondWith(http.StatusNotFound, ""))

			_, err := client.ListImages(ctx, domain, cmdCtx)
			gomega.Expect(err).To(gomega.MatchError(types.ErrTransport))
			gomega.Expect(err.Error()).To(gomega.Equal("Not Found"))
			gomega.Expect(cerrdefs.IsNotFound(err)).To(gomega.BeTrue())
		})

		ginkgo.It("should report an unreachable registry as a transport error", func() {
			server.Close()

			_, err := client.ListImages(ctx, domain, cmdCtx)

			var regErr *types.RegistryError
			gomega.Expect(err).To(gomega.BeAssignableToTypeOf(regErr))
			gomega.Expect(err).To(gomega.MatchError(types.ErrTransport))
			gomega.Expect(types.KindOf(err)).To(gomega.Equal(types.KindTransport))
			gomega.Expect(cerrdefs.IsUnavailable(err)).To(gomega.BeTrue())
		})
	})

	ginkgo.Describe("listing tags", func() {
		ginkgo.It("should return the tags of an image", func() {
			cmdCtx.ImageName = testImage
			server.AppendHandlers(ghttp.CombineHandlers(
				ghttp.VerifyRequest(http.MethodGet, "/v2/library/alpine/tags/list/"),
				ghttp.RespondWith(http.StatusOK, `{"name":"library/alpine","tags":["3.19","3.20"]}`),
			))

			tags, err := client.GetImageTags(ctx, domain, cmdCtx)
			gomega.Expect(err).NotTo(gomega.HaveOccurred())
			gomega.Expect(tags).To(gomega.Equal([]string{"3.19", "3.20"}))
		})

		ginkgo.It("should require an image name before sending a request", func() {
			_, err := client.GetImageTags(ctx, domain, cmdCtx)
			gomega.Expect(err).To(gomega.MatchError(types.ErrMissingImageName))
			gomega.Expect(server.ReceivedRequests()).To(gomega.BeEmpty())
		})

		ginkgo.It("should return an empty list for an image without tags", func() {
			cmdCtx.ImageName = testImage
			server.AppendHandlers(ghttp.RespondWith(http.StatusOK, `{"name":"library/alpine","tags":[]}`))

			tags, err := client.GetImageTags(ctx, domain, cmdCtx)
			gomega.Expect(err).NotTo(gomega.HaveOccurred())
			gomega.Expect(tags).NotTo(gomega.BeNil())
			gomega.Expect(tags).To(gomega.BeEmpty())
		})

		ginkgo.DescribeTable("should report malformed tag lists as parse errors",
			func(body string) {
				cmdCtx.ImageName = testImage
				server.AppendHandlers(ghttp.RespondWith(http.StatusOK, body))

				tags, err := client.GetImageTags(ctx, domain, cmdCtx)
				gomega.Expect(err).To(gomega.MatchError(types.ErrParse))
				gomega.Expect(types.KindOf(err)).To(gomega.Equal(types.KindParse))
				gomega.Expect(tags).To(gomega.BeNil())
			},
			ginkgo.Entry("missing field", `{"name":"library/alpine"}`),
			ginkgo.Entry("null field", `{"name":"library/alpine","tags":null}`),
			ginkgo.Entry("string instead of a list", `{"name":"library/alpine","tags":"x"}`),
			ginkgo.Entry("wrong element type", `{"name":"library/alpine","tags":[1]}`),
			ginkgo.Entry("null element", `{"name":"library/alpine","tags":[null]}`),
			ginkgo.Entry("null among tags", `{"name":"library/alpine","tags":["3.19",null]}`),
		)
	})

	ginkgo.Describe("rejected credentials", func() {
		ginkgo.BeforeEach(func() {
			cmdCtx.ImageName = testImage
			cmdCtx.Tag = "3.20"
		})

		ginkgo.DescribeTable("should map 401 and 402 to invalid credentials for every GET command",
			func(status int, call func() error) {
				server.AppendHandlers(ghttp.RespondWith(status, `{"repositories":["a"],"tags":["x"]}`))

				err := call()
				gomega.Expect(err).To(gomega.MatchError(types.ErrInvalidCredentials))
				gomega.Expect(types.KindOf(err)).To(gomega.Equal(types.KindAuth))
			},
			ginkgo.Entry("LIST on 401", http.StatusUnauthorized, func() error {
				_, err := client.ListImages(ctx, domain, cmdCtx)

				return err
			}),
			ginkgo.Entry("LIST on 402", http.StatusPaymentRequired, func() error {
				_, err := client.ListImages(ctx, domain, cmdCtx)

				return err
			}),
			ginkgo.Entry("TAGS on 401", http.StatusUnauthorized, func() error {
				_, err := client.GetImageTags(ctx, domain, cmdCtx)

				return err
			}),
			ginkgo.Entry("TAGS on 402", http.StatusPaymentRequired, func() error {
				_, err := client.GetImageTags(ctx, domain, cmdCtx)

				return err
			}),
			ginkgo.Entry("MANIFEST on 401", http.StatusUnauthorized, func() error {
				_, err := client.GetImageManifest(ctx, domain, cmdCtx)

				return err
			}),
			ginkgo.Entry("MANIFEST on 402", http.StatusPaymentRequired, func() error {
				_, err := client.GetImageManifest(ctx, domain, cmdCtx)

				return err
			}),
		)
	})

	ginkgo.Describe("fetching manifests", func() {
		const manifestBody = `{"schemaVersion":2,"config":{"digest":"sha256:xyz"}}`

		ginkgo.BeforeEach(func() {
			cmdCtx.ImageName = testImage
		})

		ginkgo.It("should return the manifest addressed by tag", func() {
			cmdCtx.Tag = "latest"
			server.AppendHandlers(ghttp.CombineHandlers(
				ghttp.VerifyRequest(http.MethodGet, "/v2/library/alpine/manifests/latest/"),
				ghttp.VerifyHeaderKV("Accept", digest.AcceptHeaders()["Accept"]),
				ghttp.RespondWith(http.StatusOK, manifestBody),
			))

			body, err := client.GetImageManifest(ctx, domain, cmdCtx)
			gomega.Expect(err).NotTo(gomega.HaveOccurred())
			gomega.Expect([]byte(body)).To(gomega.MatchJSON(manifestBody))
		})

		ginkgo.It("should address the manifest by digest", func() {
			cmdCtx.Digest = "sha256:abc"
			server.AppendHandlers(ghttp.CombineHandlers(
				ghttp.VerifyRequest(http.MethodGet, "/v2/library/alpine/manifests/sha256:abc/"),
				ghttp.RespondWith(http.StatusOK, manifestBody),
			))

			_, err := client.GetImageManifest(ctx, domain, cmdCtx)
			gomega.Expect(err).NotTo(gomega.HaveOccurred())
		})

		ginkgo.It("should refuse a tag and a digest together", func() {
			cmdCtx.Tag = "latest"
			cmdCtx.Digest = "sha256:abc"

			_, err := client.GetImageManifest(ctx, domain, cmdCtx)
			gomega.Expect(err).To(gomega.MatchError(types.ErrAmbiguousReference))
			gomega.Expect(server.ReceivedRequests()).To(gomega.BeEmpty())
		})

		ginkgo.It("should refuse a missing reference", func() {
			_, err := client.GetImageManifest(ctx, domain, cmdCtx)
			gomega.Expect(err).To(gomega.MatchError(types.ErrAmbiguousReference))
		})

		ginkgo.It("should report a body that is not JSON", func() {
			cmdCtx.Tag = "latest"
			server.AppendHandlers(ghttp.RespondWith(http.StatusOK, "not json"))

			_, err := client.GetImageManifest(ctx, domain, cmdCtx)
			gomega.Expect(err).To(gomega.MatchError(types.ErrParse))
		})

		ginkgo.It("should return the config digest", func() {
			cmdCtx.Tag = "latest"
			server.AppendHandlers(ghttp.RespondWith(http.StatusOK, manifestBody))

			dig, err := client.GetImageDigest(ctx, domain, cmdCtx)
			gomega.Expect(err).NotTo(gomega.HaveOccurred())
			gomega.Expect(dig).To(gomega.Equal("sha256:xyz"))
		})

		ginkgo.It("should report a manifest without a config digest", func() {
			cmdCtx.Tag = "latest"
			server.AppendHandlers(ghttp.RespondWith(http.StatusOK, `{"schemaVersion":1}`))

			_, err := client.GetImageDigest(ctx, domain, cmdCtx)
			gomega.Expect(err).To(gomega.MatchError(types.ErrParse))
		})
	})

	ginkgo.Describe("deleting images", func() {
		ginkgo.BeforeEach(func() {
			cmdCtx.ImageName = testImage
			cmdCtx.Digest = "sha256:abc"
		})

		ginkgo.DescribeTable("should accept success statuses",
			func(status int) {
				server.AppendHandlers(ghttp.CombineHandlers(
					ghttp.VerifyRequest(http.MethodDelete, "/v2/library/alpine/manifests/sha256:abc/"),
					ghttp.VerifyBasicAuth(testUser, testPassword),
					ghttp.RespondWith(status, ""),
				))

				gomega.Expect(client.DeleteImage(ctx, domain, cmdCtx)).To(gomega.Succeed())
			},
			ginkgo.Entry("200", http.StatusOK),
			ginkgo.Entry("202", http.StatusAccepted),
			ginkgo.Entry("204", http.StatusNoContent),
		)

		ginkgo.It("should report 401 as an unauthorized status", func() {
			server.AppendHandlers(ghttp.RespondWith(http.StatusUnauthorized, ""))

			err := client.DeleteImage(ctx, domain, cmdCtx)
			gomega.Expect(err).To(gomega.MatchError(types.ErrTransport))
			gomega.Expect(err.Error()).To(gomega.Equal("Unauthorized"))
		})

		ginkgo.It("should report a disabled delete API", func() {
			server.AppendHandlers(ghttp.RespondWith(http.StatusMethodNotAllowed, ""))

			err := client.DeleteImage(ctx, domain, cmdCtx)
			gomega.Expect(err).To(gomega.MatchError(types.ErrTransport))
			gomega.Expect(err.Error()).To(gomega.Equal("Method Not Allowed"))
		})

		ginkgo.It("should validate the reference before sending a request", func() {
			cmdCtx.Tag = "latest"

			err := client.DeleteImage(ctx, domain, cmdCtx)
			gomega.Expect(err).To(gomega.MatchError(types.ErrAmbiguousReference))
			gomega.Expect(server.ReceivedRequests()).To(gomega.BeEmpty())
		})
	})
})
