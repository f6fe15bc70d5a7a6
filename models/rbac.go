package models

// RbacRule право, которое проверяется для маршрута api
type RbacRule struct {
	AppName   string
	ModelName string
	Action    Action
	MinLevel  int
}
