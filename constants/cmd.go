package constants

const (
	TouchPresencePath = "/TouchPresence" // 上报活跃并刷新在线状态
	ListOnlinePath    = "/ListOnline"    // 获取小组在线成员列表
	LeaveGroupPath    = "/LeaveGroup"    // 主动离开小组(尽力而为)
)

const (
	PublishMessagePath    = "/PublishMessage"    // 发送消息
	GetRecentMessagesPath = "/GetRecentMessages" // 获取最近消息
	GetWSTicketPath       = "/GetWSTicket"       // 获取 websocket 订阅票据
	SubscribeScopePath    = "/SubscribeScope"    // websocket 订阅作用域
)

const (
	RunCodePath         = "/RunCode"         // 试运行代码, 不计分
	SubmitCodePath      = "/SubmitCode"      // 提交代码, Accepted 时计分并广播榜单
	GetStandingsPath    = "/GetStandings"    // 获取挑战榜单
	ExportStandingsPath = "/ExportStandings" // 导出挑战榜单
)
