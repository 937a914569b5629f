// api/controller/controllers.go
package controller

import "github.com/ccpo-cloud/atat/service"

type Controllers struct {
	User        *UserController
	Portfolio   *PortfolioController
	Application *ApplicationController
	Environment *EnvironmentController
	Member      *MemberController
	Invitation  *InvitationController
	TaskOrder   *TaskOrderController
	AuditLog    *AuditLogController
}

func InitializeControllers(services *service.Services) *Controllers {
	return &Controllers{
		User:        NewUserController(services.User),
		Portfolio:   NewPortfolioController(services.Portfolio, services.Application),
		Application: NewApplicationController(services.Application),
		Environment: NewEnvironmentController(services.Environment),
		Member:      NewMemberController(services.Member),
		Invitation:  NewInvitationController(services.Invitation),
		TaskOrder:   NewTaskOrderController(services.TaskOrder),
		AuditLog:    NewAuditLogController(services.AuditLog),
	}
}
