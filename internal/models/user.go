// Package models содержит доменные структуры компаньона: профиль пользователя,
// уведомления и DTO удалённого API планировщика поездок.
package models

// UserProfile представляет профиль аутентифицированного пользователя.
// Username задаётся при входе или регистрации и далее не меняется.
type UserProfile struct {
	Username           string `json:"username"`
	FullName           string `json:"fullName,omitempty"`
	Gender             string `json:"gender,omitempty"`
	DateOfBirth        string `json:"dateOfBirth,omitempty"`
	CountryOfResidence string `json:"countryOfResidence,omitempty"`
	Nationality        string `json:"nationality,omitempty"`
	PreferredLanguage  string `json:"preferredLanguage,omitempty"`
	Dependants         int    `json:"dependants"`
	Avatar             string `json:"avatar,omitempty"`
}

// IsProfileComplete сообщает, заполнены ли все личные поля профиля.
// Dependants и Avatar в полноту не входят.
func (p UserProfile) IsProfileComplete() bool {
	return p.FullName != "" &&
		p.Gender != "" &&
		p.DateOfBirth != "" &&
		p.CountryOfResidence != "" &&
		p.Nationality != "" &&
		p.PreferredLanguage != ""
}

// ProfilePatch: частичное обновление профиля, nil-поля не трогаются.
// Username намеренно отсутствует.
type ProfilePatch struct {
	FullName           *string `json:"fullName,omitempty"`
	Gender             *string `json:"gender,omitempty"`
	DateOfBirth        *string `json:"dateOfBirth,omitempty"`
	CountryOfResidence *string `json:"countryOfResidence,omitempty"`
	Nationality        *string `json:"nationality,omitempty"`
	PreferredLanguage  *string `json:"preferredLanguage,omitempty"`
	Dependants         *int    `json:"dependants,omitempty" validate:"omitempty,min=0"`
	Avatar             *string `json:"avatar,omitempty" validate:"omitempty,url"`
}

// Apply возвращает копию профиля с наложенными полями патча.
func (p UserProfile) Apply(patch ProfilePatch) UserProfile {
	set := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	set(&p.FullName, patch.FullName)
	set(&p.Gender, patch.Gender)
	set(&p.DateOfBirth, patch.DateOfBirth)
	set(&p.CountryOfResidence, patch.CountryOfResidence)
	set(&p.Nationality, patch.Nationality)
	set(&p.PreferredLanguage, patch.PreferredLanguage)
	set(&p.Avatar, patch.Avatar)
	if patch.Dependants != nil {
		p.Dependants = *patch.Dependants
	}
	return p
}
