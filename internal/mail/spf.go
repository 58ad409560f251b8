package mail

import (
	"context"
	"fmt"
	"net"

	"blitiri.com.ar/go/spf"
	"github.com/Goofygiraffe06/authgate/internal/logging"
)

// CheckSPF reports whether ip is authorized by the SPF record of the sender's
// domain. It runs once at startup so a misconfigured relay shows up in the
// logs before any mail is rejected downstream.
func CheckSPF(ctx context.Context, ip, sender string, opts ...spf.Option) (spf.Result, error) {
	addr := net.ParseIP(ip)
	if addr == nil {
		return spf.None, fmt.Errorf("spf: invalid IP address %q", ip)
	}

	opts = append([]spf.Option{spf.WithContext(ctx)}, opts...)
	result, err := spf.CheckHostWithSender(addr, domainOf(sender), sender, opts...)
	switch result {
	case spf.Pass:
		logging.InfoLog("SPF preflight pass for domain=%s ip=%s", domainOf(sender), ip)
	case spf.TempError, spf.PermError:
		logging.WarnLog("SPF preflight %s for domain=%s ip=%s: %v", result, domainOf(sender), ip, err)
	default:
		logging.WarnLog("SPF preflight result=%s for domain=%s ip=%s; mail may be rejected", result, domainOf(sender), ip)
	}
	return result, err
}
