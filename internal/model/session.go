package model

// Session 经身份服务校验后的请求会话，显式传入各业务调用
type Session struct {
	Uid   string
	Email string
}
