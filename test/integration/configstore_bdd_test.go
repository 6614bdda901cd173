//go:build integration

package integration

import (
	"os"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/kidcan/agent/internal/domain"
	"github.com/kidcan/agent/internal/infra"
)

var _ = Describe("Encrypted Config Store", func() {
	var (
		tmpDir string
		key    []byte
		store  *infra.EncryptedConfigStore
	)

	BeforeEach(func() {
		var err error
		tmpDir, err = os.MkdirTemp("", "kidagent-integration-*")
		Expect(err).NotTo(HaveOccurred())

		key, err = infra.NewFileKeyProvider(tmpDir).EnsureKey()
		Expect(err).NotTo(HaveOccurred())

		store, err = infra.OpenConfigStore(tmpDir, key)
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		if store != nil {
			store.Close()
		}
		os.RemoveAll(tmpDir)
	})

	Describe("TrackingConfig", func() {
		Context("when nothing has been saved", func() {
			It("should return the default intervals", func() {
				cfg, err := store.TrackingConfig()
				Expect(err).NotTo(HaveOccurred())
				Expect(cfg).To(Equal(domain.DefaultTrackingConfig()))
			})
		})

		Context("when a config has been saved and the store reopened", func() {
			It("should return the saved values", func() {
				saved := domain.TrackingConfig{
					BaseLocationMs:  120000,
					BoostLocationMs: 15000,
					BaseBatteryMs:   900000,
					BoostBatteryMs:  120000,
				}
				Expect(store.SaveTrackingConfig(saved)).To(Succeed())
				Expect(store.Close()).To(Succeed())

				var err error
				store, err = infra.OpenConfigStore(tmpDir, key)
				Expect(err).NotTo(HaveOccurred())

				cfg, err := store.TrackingConfig()
				Expect(err).NotTo(HaveOccurred())
				Expect(cfg).To(Equal(saved))
			})
		})

		Context("when a config is saved twice", func() {
			It("should keep only the latest values", func() {
				first := domain.DefaultTrackingConfig()
				first.BoostLocationMs = 5000
				Expect(store.SaveTrackingConfig(first)).To(Succeed())

				second := first
				second.BoostLocationMs = 30000
				Expect(store.SaveTrackingConfig(second)).To(Succeed())

				cfg, err := store.TrackingConfig()
				Expect(err).NotTo(HaveOccurred())
				Expect(cfg.BoostLocationMs).To(Equal(int64(30000)))
			})
		})
	})

	Describe("Identity", func() {
		Context("when the device is unpaired", func() {
			It("should return nil without error", func() {
				id, err := store.Identity()
				Expect(err).NotTo(HaveOccurred())
				Expect(id).To(BeNil())
			})
		})

		Context("when an identity has been saved and the store reopened", func() {
			It("should return the saved identity", func() {
				saved := domain.DeviceIdentity{ChildID: 42, DeviceID: "device-abc"}
				Expect(store.SaveIdentity(saved)).To(Succeed())
				Expect(store.Close()).To(Succeed())

				var err error
				store, err = infra.OpenConfigStore(tmpDir, key)
				Expect(err).NotTo(HaveOccurred())

				id, err := store.Identity()
				Expect(err).NotTo(HaveOccurred())
				Expect(id).NotTo(BeNil())
				Expect(*id).To(Equal(saved))
			})
		})
	})

	Describe("Key provider", func() {
		Context("across restarts", func() {
			It("should return the same key", func() {
				again, err := infra.NewFileKeyProvider(tmpDir).EnsureKey()
				Expect(err).NotTo(HaveOccurred())
				Expect(again).To(Equal(key))
			})
		})

		Context("when opened with the wrong key", func() {
			It("should fail to read the database", func() {
				Expect(store.SaveIdentity(domain.DeviceIdentity{ChildID: 1, DeviceID: "d"})).To(Succeed())
				Expect(store.Close()).To(Succeed())
				store = nil

				wrong := make([]byte, len(key))
				_, err := infra.OpenConfigStore(tmpDir, wrong)
				Expect(err).To(HaveOccurred())
			})
		})
	})
})
