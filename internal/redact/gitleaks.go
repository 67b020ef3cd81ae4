package redact

import (
	"strings"

	"github.com/zricethezav/gitleaks/v8/detect"
	"go.uber.org/zap"
)

// scrubSecrets replaces every gitleaks finding in text with the secret
// marker and returns the number of distinct secrets replaced. Detector
// setup failures are logged and leave text unchanged.
func (r *redactor) scrubSecrets(text string) (string, int) {
	detector, err := detect.NewDetectorDefaultConfig()
	if err != nil {
		r.logger.Warn("gitleaks detector unavailable", zap.Error(err))
		return text, 0
	}

	marker := MarkerFor(CategorySecret)
	replaced := 0
	seen := make(map[string]struct{})
	for _, f := range detector.DetectString(text) {
		secret := f.Secret
		if secret == "" || r.isAllowed(secret) {
			continue
		}
		if _, ok := seen[secret]; ok {
			continue
		}
		seen[secret] = struct{}{}
		if strings.Contains(text, secret) {
			text = strings.ReplaceAll(text, secret, marker)
			replaced++
		}
	}
	return text, replaced
}
