package infra

import (
	"os"

	"github.com/kidcan/agent/internal/domain"
)

// EnvDefaultApps implements domain.DefaultAppsProvider from environment
// variables. On targets with a telephony stack the platform's own
// defaults provider replaces this one; here the deployment declares the
// default communication apps, or leaves them unset.
type EnvDefaultApps struct{}

// DefaultDialerPackage returns KIDAGENT_DEFAULT_DIALER, empty if unset.
func (EnvDefaultApps) DefaultDialerPackage() string {
	return os.Getenv("KIDAGENT_DEFAULT_DIALER")
}

// DefaultSMSPackage returns KIDAGENT_DEFAULT_SMS, empty if unset.
func (EnvDefaultApps) DefaultSMSPackage() string {
	return os.Getenv("KIDAGENT_DEFAULT_SMS")
}

var _ domain.DefaultAppsProvider = EnvDefaultApps{}
