package user

import (
	"leadmsg/backend/user/repository"
	"leadmsg/backend/user/service"

	"gorm.io/gorm"
)

// NewServiceWithDI wires the user feature's repository and service.
func NewServiceWithDI(db *gorm.DB) *service.UserService {
	repo := repository.NewGormUserRepository(db)
	return service.NewUserService(repo)
}
