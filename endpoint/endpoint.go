// Package endpoint describes the YoLink service regions and the URLs
// derived from them.
//
// The cloud runs two regional gateways, US and EU. A device's region is
// fixed by its hardware model: EU units carry an "-EC" model suffix.
// YoLink hubs additionally expose the same API surface on the LAN,
// which Local models.
package endpoint

import (
	"fmt"
	"strings"
)

// Endpoint is one YoLink API entry point: the HTTP gateway, the token
// endpoint and the MQTT broker that belong together.
type Endpoint struct {
	Name       string
	Host       string
	URL        string // BSDP/BRDP gateway
	TokenURL   string // OAuth2 client-credentials exchange
	BrokerHost string
	BrokerPort int
}

// New returns the cloud endpoint for the given region host. Cloud
// gateways serve HTTPS on 443 and MQTT on 8003.
func New(name, host string) Endpoint {
	return Endpoint{
		Name:       name,
		Host:       host,
		URL:        fmt.Sprintf("https://%s/open/yolink/v2/api", host),
		TokenURL:   fmt.Sprintf("https://%s/open/yolink/token", host),
		BrokerHost: host,
		BrokerPort: 8003,
	}
}

// US is the default gateway, api.yosmart.com.
func US() Endpoint {
	return New("US", "api.yosmart.com")
}

// EU is the European gateway, api-eu.yosmart.com.
func EU() Endpoint {
	return New("EU", "api-eu.yosmart.com")
}

// Local returns the endpoint served by a YoLink hub on the LAN. Hubs
// speak plain HTTP on 1080 and MQTT on 18080.
func Local(host string) Endpoint {
	return Endpoint{
		Name:       "Local",
		Host:       host,
		URL:        fmt.Sprintf("http://%s:1080/open/yolink/v2/api", host),
		TokenURL:   fmt.Sprintf("http://%s:1080/open/yolink/token", host),
		BrokerHost: host,
		BrokerPort: 18080,
	}
}

// ForModel picks the cloud endpoint a device is homed on from its
// hardware model name.
func ForModel(modelName string) Endpoint {
	if strings.HasSuffix(modelName, "-EC") {
		return EU()
	}
	return US()
}

// BrokerAddr returns the broker address in the tcp://host:port form the
// MQTT client expects.
func (e Endpoint) BrokerAddr() string {
	return fmt.Sprintf("tcp://%s:%d", e.BrokerHost, e.BrokerPort)
}
