package signalcodec

import (
	"encoding/json"
	"fmt"

	"github.com/crolang-p2p/crolang-p2p-node-sub000/internal/provider"
)

// validICETransportPolicies and friends enumerate the only accepted wire
// values (§6.6); anything else is a malformed RTC configuration.
var (
	validICETransportPolicies = map[string]bool{"ALL": true, "RELAY": true, "NO_HOST": true, "NONE": true}
	validBundlePolicies       = map[string]bool{"BALANCED": true, "MAX_COMPAT": true, "MAX_BUNDLE": true}
	validRTCPMuxPolicies      = map[string]bool{"REQUIRE": true, "NEGOTIATE": true}
)

type rawICEServer struct {
	URLs     []string `json:"urls"`
	Username string   `json:"username,omitempty"`
	Password string   `json:"password,omitempty"`
}

type rawRTCConfig struct {
	ICEServers         []rawICEServer `json:"iceServers"`
	ICETransportPolicy *string        `json:"iceTransportPolicy"`
	BundlePolicy       *string        `json:"bundlePolicy"`
	RTCPMuxPolicy      *string        `json:"rtcpMuxPolicy"`
}

// ErrMalformedRTCConfig is returned by ParseRTCConfig for any payload that
// fails strict validation (§6.6, §9: "validate strictly and reject on
// mismatch"). The broker-connect boundary surfaces this as
// ErrorParsingRTCConfiguration.
var ErrMalformedRTCConfig = fmt.Errorf("signalcodec: malformed rtc configuration")

// ParseRTCConfig parses and strictly validates the RTC configuration
// delivered inside the AUTHENTICATED message (§6.6).
func ParseRTCConfig(data []byte) (provider.RTCConfig, error) {
	var raw rawRTCConfig
	if err := json.Unmarshal(data, &raw); err != nil {
		return provider.RTCConfig{}, ErrMalformedRTCConfig
	}

	if raw.ICETransportPolicy == nil || !validICETransportPolicies[*raw.ICETransportPolicy] {
		return provider.RTCConfig{}, ErrMalformedRTCConfig
	}
	if raw.BundlePolicy == nil || !validBundlePolicies[*raw.BundlePolicy] {
		return provider.RTCConfig{}, ErrMalformedRTCConfig
	}
	if raw.RTCPMuxPolicy == nil || !validRTCPMuxPolicies[*raw.RTCPMuxPolicy] {
		return provider.RTCConfig{}, ErrMalformedRTCConfig
	}

	servers := make([]provider.ICEServer, 0, len(raw.ICEServers))
	for _, s := range raw.ICEServers {
		if len(s.URLs) == 0 {
			return provider.RTCConfig{}, ErrMalformedRTCConfig
		}
		servers = append(servers, provider.ICEServer{URLs: s.URLs, Username: s.Username, Password: s.Password})
	}

	return provider.RTCConfig{
		ICEServers:         servers,
		ICETransportPolicy: *raw.ICETransportPolicy,
		BundlePolicy:       *raw.BundlePolicy,
		RTCPMuxPolicy:      *raw.RTCPMuxPolicy,
	}, nil
}
