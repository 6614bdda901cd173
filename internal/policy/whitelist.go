package policy

import "github.com/kidcan/agent/internal/domain"

// Known communication app packages used to seed the startup whitelist.
// The platform's reported defaults are added on top; unknown defaults are
// simply skipped.
var (
	dialerCandidates = []string{
		"com.google.android.dialer",
		"com.android.dialer",
	}
	smsCandidates = []string{
		"com.google.android.apps.messaging",
		"com.samsung.android.messaging",
		"com.android.messaging",
	}
	contactsCandidates = []string{
		"com.google.android.contacts",
		"com.android.contacts",
	}
)

// DefaultWhitelist derives the startup whitelist: the fixed candidate
// sets plus whatever the platform reports as the default dialer and SMS
// apps. The result may be replaced later via Engine.SetWhitelist.
func DefaultWhitelist(apps domain.DefaultAppsProvider) []string {
	seen := make(map[string]struct{})
	var out []string
	add := func(pkg string) {
		if pkg == "" {
			return
		}
		if _, dup := seen[pkg]; dup {
			return
		}
		seen[pkg] = struct{}{}
		out = append(out, pkg)
	}

	for _, pkg := range dialerCandidates {
		add(pkg)
	}
	for _, pkg := range smsCandidates {
		add(pkg)
	}
	for _, pkg := range contactsCandidates {
		add(pkg)
	}
	if apps != nil {
		add(apps.DefaultDialerPackage())
		add(apps.DefaultSMSPackage())
	}
	return out
}
