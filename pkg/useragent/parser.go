package useragent

import (
	"BioLink-Backend/internal/domain"
	"fmt"
	"os"
	"regexp"

	"github.com/ua-parser/uap-go/uaparser"
	"go.uber.org/zap"
)

var (
	tabletPattern  = regexp.MustCompile(`(?i)ipad|tablet|kindle|silk|playbook|nexus (7|9|10)`)
	androidPattern = regexp.MustCompile(`(?i)android`)
	mobileToken    = regexp.MustCompile(`(?i)mobile`)
	mobilePattern  = regexp.MustCompile(`(?i)mobile|iphone|ipod|android|blackberry|windows phone|opera mini|iemobile|webos`)
)

// DetectDeviceType classifies a User-Agent. Tablet wins over mobile, mobile
// over desktop. Android without a "Mobile" token is a tablet.
func DetectDeviceType(userAgent string) domain.DeviceType {
	if userAgent == "" {
		return domain.DeviceUnknown
	}
	if tabletPattern.MatchString(userAgent) {
		return domain.DeviceTablet
	}
	if androidPattern.MatchString(userAgent) && !mobileToken.MatchString(userAgent) {
		return domain.DeviceTablet
	}
	if mobilePattern.MatchString(userAgent) {
		return domain.DeviceMobile
	}
	return domain.DeviceDesktop
}

// Parser adds browser and OS families from uap-core regexes on top of
// DetectDeviceType.
type Parser struct {
	parser *uaparser.Parser
	log    *zap.Logger
}

// NewParser loads regexes from regexFilePath, or the definitions bundled
// with uap-go when the path is empty.
func NewParser(regexFilePath string, log *zap.Logger) (*Parser, error) {
	if regexFilePath == "" {
		log.Info("User-Agent parser using bundled regexes")
		return &Parser{parser: uaparser.NewFromSaved(), log: log}, nil
	}

	regexBytes, err := os.ReadFile(regexFilePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read regexes file %s: %w", regexFilePath, err)
	}

	parser, err := uaparser.NewFromBytes(regexBytes)
	if err != nil {
		return nil, fmt.Errorf("failed to create User-Agent parser: %w", err)
	}

	log.Info("User-Agent parser initialized successfully", zap.String("regexes_file", regexFilePath))

	return &Parser{
		parser: parser,
		log:    log,
	}, nil
}

// ParseUserAgent returns device information for a User-Agent. A nil Parser
// still classifies the device but reports browser and OS as unknown.
func (p *Parser) ParseUserAgent(userAgent string) *domain.DeviceInfo {
	info := &domain.DeviceInfo{
		DeviceType: DetectDeviceType(userAgent),
		Browser:    "unknown",
		OS:         "unknown",
	}
	if p == nil || p.parser == nil || userAgent == "" {
		return info
	}

	client := p.parser.Parse(userAgent)
	info.Browser = formatFamily(client.UserAgent.Family)
	info.OS = formatFamily(client.Os.Family)

	p.log.Debug("parsed User-Agent",
		zap.String("device_type", string(info.DeviceType)),
		zap.String("browser", info.Browser),
		zap.String("os", info.OS),
	)

	return info
}

// formatFamily replaces empty and "Other" with "unknown"
func formatFamily(s string) string {
	if s == "" || s == "Other" {
		return "unknown"
	}
	return s
}
