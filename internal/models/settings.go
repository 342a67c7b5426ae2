package models

// Settings глобальные настройки платформы, которые админ меняет на лету.
type Settings struct {
	AppName            string   `json:"appName"`
	MaintenanceMode    bool     `json:"maintenanceMode"`
	MaintenanceMessage string   `json:"maintenanceMessage,omitempty"`
	AllowSignup        bool     `json:"allowSignup"`
	SignupBonus        int      `json:"signupBonus"`
	AllowedClasses     []string `json:"allowedClasses,omitempty"`
	ChatCost           int      `json:"chatCost"`
	DailyReward        int      `json:"dailyReward"`
	LoginMessage       string   `json:"loginMessage,omitempty"`
}

// DefaultSettings настройки до первой синхронизации с realtime-хранилищем.
func DefaultSettings() Settings {
	return Settings{
		AppName:            "NST",
		MaintenanceMessage: "We are upgrading our servers. Please check back later.",
		AllowSignup:        true,
		SignupBonus:        2,
		AllowedClasses:     []string{"6", "7", "8", "9", "10", "11", "12"},
		ChatCost:           1,
		DailyReward:        3,
	}
}
