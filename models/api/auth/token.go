package authapimodels

type JWTResponse struct {
	Token string `json:"token"`
}

type MeResponse struct {
	ID          int64  `json:"id"`
	Email       string `json:"email"`
	Name        string `json:"name"`
	PhoneNumber string `json:"phone_number"`
	IsSuperuser bool   `json:"is_superuser"`
}
