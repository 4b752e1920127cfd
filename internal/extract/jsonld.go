package extract

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/austral-labs/enrich-cli/internal/model"
)

var jsonLDPattern = regexp.MustCompile(`(?is)<script[^>]+type\s*=\s*["']application/ld\+json["'][^>]*>(.*?)</script>`)

// jsonLDEntity is the loose shape of an Organization or LocalBusiness
// block. Sites embed these with wildly varying fidelity, so every field
// is optional and address may be a string or a PostalAddress object.
type jsonLDEntity struct {
	Type      json.RawMessage `json:"@type"`
	Email     string          `json:"email"`
	Telephone string          `json:"telephone"`
	Address   json.RawMessage `json:"address"`
	Graph     []jsonLDEntity  `json:"@graph"`
}

type jsonLDAddress struct {
	StreetAddress   string `json:"streetAddress"`
	AddressLocality string `json:"addressLocality"`
	AddressRegion   string `json:"addressRegion"`
}

// structuredHints scans embedded ld+json blocks for organization contact
// fields. Malformed JSON is skipped silently; hints are best effort.
func structuredHints(content string) model.ContactInfo {
	var hints model.ContactInfo
	for _, match := range jsonLDPattern.FindAllStringSubmatch(content, 5) {
		var entity jsonLDEntity
		if err := json.Unmarshal([]byte(match[1]), &entity); err != nil {
			continue
		}
		hints = hints.Merge(entityHints(entity))
		for _, nested := range entity.Graph {
			hints = hints.Merge(entityHints(nested))
		}
	}
	return hints
}

func entityHints(entity jsonLDEntity) model.ContactInfo {
	if !isOrganization(entity.Type) {
		return model.ContactInfo{}
	}

	info := model.ContactInfo{
		Email: strings.TrimSpace(entity.Email),
	}
	if entity.Telephone != "" {
		if phone := normalizePhone(entity.Telephone); len(phone) >= 8 {
			info.Phone = phone
		}
	}
	info.Address = decodeAddress(entity.Address)
	return info
}

func isOrganization(rawType json.RawMessage) bool {
	var single string
	if err := json.Unmarshal(rawType, &single); err == nil {
		return organizationType(single)
	}
	var many []string
	if err := json.Unmarshal(rawType, &many); err == nil {
		for _, t := range many {
			if organizationType(t) {
				return true
			}
		}
	}
	return false
}

func organizationType(t string) bool {
	switch t {
	case "Organization", "LocalBusiness", "Corporation", "Store":
		return true
	}
	return false
}

func decodeAddress(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var plain string
	if err := json.Unmarshal(raw, &plain); err == nil {
		return strings.TrimSpace(plain)
	}
	var structured jsonLDAddress
	if err := json.Unmarshal(raw, &structured); err != nil {
		return ""
	}
	parts := make([]string, 0, 3)
	for _, p := range []string{structured.StreetAddress, structured.AddressLocality, structured.AddressRegion} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}
