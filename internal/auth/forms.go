package auth

type LoginForm struct {
	Username string `form:"username" validate:"required"`
	Password string `form:"password" validate:"required"`
}

type RegisterForm struct {
	Username        string `form:"username" validate:"required,max=255"`
	Email           string `form:"email" validate:"required,email,max=255"`
	Password        string `form:"password" validate:"required"`
	ConfirmPassword string `form:"confirmPassword" validate:"required"`
	AgreeTerms      bool   `form:"agreeTerms"`
}

type ForgotForm struct {
	Email string `form:"email" validate:"required,email"`
}

type ResetForm struct {
	Token           string `form:"token" validate:"required"`
	Password        string `form:"password" validate:"required"`
	ConfirmPassword string `form:"confirmPassword" validate:"required"`
}
