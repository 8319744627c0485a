package company

import "strings"

// Info is the single company_info row shown in headers and footers.
type Info struct {
	Name      string `json:"name"`
	Tagline   string `json:"tagline"`
	Phone     string `json:"phone"`
	Email     string `json:"email"`
	Address   string `json:"address"`
	LinkedIn  string `json:"linkedin"`
	Facebook  string `json:"facebook"`
	Instagram string `json:"instagram"`
}

func (i Info) trimmed() Info {
	return Info{
		Name:      strings.TrimSpace(i.Name),
		Tagline:   strings.TrimSpace(i.Tagline),
		Phone:     strings.TrimSpace(i.Phone),
		Email:     strings.TrimSpace(i.Email),
		Address:   strings.TrimSpace(i.Address),
		LinkedIn:  strings.TrimSpace(i.LinkedIn),
		Facebook:  strings.TrimSpace(i.Facebook),
		Instagram: strings.TrimSpace(i.Instagram),
	}
}
