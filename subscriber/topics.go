package subscriber

import (
	"fmt"
	"strings"
)

// CloudTopic returns the report topic filter for a home on the cloud
// broker. Every device in the home publishes under it.
func CloudTopic(homeID string) string {
	return fmt.Sprintf("yl-home/%s/+/report", homeID)
}

// LocalTopic returns the report topic filter for a local hub subnet.
func LocalTopic(netID string) string {
	return fmt.Sprintf("ylsubnet/%s/+/report", netID)
}

// ParseReportTopic extracts the device ID from a concrete report
// topic such as "yl-home/abc123/d88b4c0100123456/report". It reports
// false for topics that do not match the expected four-segment shape.
func ParseReportTopic(topic string) (string, bool) {
	parts := strings.Split(topic, "/")
	if len(parts) != 4 || parts[3] != "report" {
		return "", false
	}
	return parts[2], true
}
