package compiler

import (
	"strings"

	"github.com/livp123/gfcore/internal/compiler/ruleprovider"
	"github.com/livp123/gfcore/internal/profile"
	"github.com/livp123/gfcore/internal/utils/maputil"
)

// baseConfig merges general and advanced settings, then adds tun, dns and an
// empty hosts map.
func baseConfig(p *profile.Profile) map[string]any {
	config := map[string]any{}
	for k, v := range p.GeneralConfig {
		config[k] = maputil.Clone(v)
	}
	for k, v := range p.AdvancedConfig {
		config[k] = maputil.Clone(v)
	}

	tun := maputil.CloneMap(p.TunConfig)
	if tun == nil {
		tun = map[string]any{}
	}
	for _, k := range []string{"route-address", "route-exclude-address"} {
		if maputil.IsEmpty(tun[k]) {
			delete(tun, k)
		}
	}
	config["tun"] = tun

	dns := maputil.CloneMap(p.DNSConfig)
	if dns == nil {
		dns = map[string]any{}
	}
	config["dns"] = dns
	config["hosts"] = map[string]any{}

	// MMDB mode must not point the core at a GeoIP.dat download.
	// MMDB 模式下不能让内核去下载 GeoIP.dat。
	if !maputil.Truthy(config["geodata-mode"]) {
		if geox, ok := maputil.Map(config["geox-url"]); ok {
			geox["geoip"] = ""
		}
	}
	return config
}

// normalizeDNS cleans config["dns"] in place and returns it.
func normalizeDNS(config map[string]any) map[string]any {
	dns := config["dns"].(map[string]any)
	hosts := config["hosts"].(map[string]any)

	if !maputil.Truthy(dns["listen"]) {
		delete(dns, "listen")
	}
	for _, k := range []string{"default-nameserver", "nameserver", "direct-nameserver", "proxy-server-nameserver"} {
		if maputil.IsEmpty(dns[k]) {
			delete(dns, k)
		}
	}
	if maputil.IsEmpty(dns["fallback"]) {
		delete(dns, "fallback")
		delete(dns, "fallback-filter")
	}

	if dnsHosts, ok := maputil.Map(dns["hosts"]); ok {
		for k, v := range dnsHosts {
			hosts[k] = collapse(v)
		}
	}
	delete(dns, "hosts")

	if policy, ok := maputil.Map(dns["nameserver-policy"]); ok {
		for k, v := range policy {
			policy[k] = collapse(v)
		}
	}

	if filter, ok := dns["fake-ip-filter"]; ok && filter != nil {
		entries := maputil.Strings(filter)
		out := make([]any, 0, len(entries))
		for _, entry := range entries {
			if strings.HasPrefix(entry, ruleprovider.LegacyPrefix) {
				for _, name := range ruleprovider.FilterReferences(entry) {
					out = append(out, ruleprovider.LegacyPrefix+name)
				}
				continue
			}
			out = append(out, entry)
		}
		dns["fake-ip-filter"] = out
	}
	return dns
}

// collapse turns a single-element list or comma string into a scalar and a
// comma string with several parts into a list.
func collapse(v any) any {
	switch t := v.(type) {
	case string:
		parts := strings.Split(t, ",")
		if len(parts) == 1 {
			return parts[0]
		}
		out := make([]any, len(parts))
		for i, s := range parts {
			out[i] = s
		}
		return out
	case []any:
		if len(t) == 1 {
			return t[0]
		}
	case []string:
		if len(t) == 1 {
			return t[0]
		}
	}
	return v
}
