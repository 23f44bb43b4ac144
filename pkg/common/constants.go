package common

import "time"

const (
	SettingCacheTTL = 5 * time.Minute

	AcceptLanguageHeader = "Accept-Language"
	AuthorizationHeader  = "Authorization"
)
