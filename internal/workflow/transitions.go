package workflow

var (
	admins      = []Role{RoleAdmin}
	ticketUsers = []Role{RoleStudent, RoleTrainer}
	closers     = []Role{RoleAdmin, RoleSystem}
)

var table = []Transition{
	{Entity: EntityUser, From: UserActive, Action: ActionSuspend, To: UserSuspended, Roles: admins, Confirm: true},
	{Entity: EntityUser, From: UserPending, Action: ActionSuspend, To: UserSuspended, Roles: admins, Confirm: true},
	{Entity: EntityUser, From: UserSuspended, Action: ActionActivate, To: UserActive, Roles: admins},
	{Entity: EntityUser, From: UserPending, Action: ActionActivate, To: UserActive, Roles: admins},

	{Entity: EntityCourse, From: CourseDraft, Action: ActionApprove, To: CoursePublished, Roles: admins},
	{Entity: EntityCourse, From: CoursePublished, Action: ActionFlag, To: CourseFlagged, Roles: admins},
	{Entity: EntityCourse, From: CourseFlagged, Action: ActionUnflag, To: CoursePublished, Roles: admins},
	{Entity: EntityCourse, From: CourseFlagged, Action: ActionReject, To: CourseRejected, Roles: admins, Confirm: true},

	{Entity: EntityReport, From: ReportPending, Action: ActionReview, To: ReportUnderReview, Roles: admins},
	{Entity: EntityReport, From: ReportPending, Action: ActionDismiss, To: ReportDismissed, Roles: admins, Confirm: true, NeedsReason: true},
	{Entity: EntityReport, From: ReportPending, Action: ActionTakeAction, To: ReportUnderReview, Roles: admins, NeedsReason: true},
	{Entity: EntityReport, From: ReportUnderReview, Action: ActionResolve, To: ReportResolved, Roles: admins},

	{Entity: EntityTicket, From: TicketOpen, Action: ActionTakeOwnership, To: TicketInProgress, Roles: admins},
	{Entity: EntityTicket, From: TicketOpen, Action: ActionRespond, To: TicketOpen, Roles: admins, NeedsReason: true},
	{Entity: EntityTicket, From: TicketInProgress, Action: ActionRespond, To: TicketInProgress, Roles: admins, NeedsReason: true},
	{Entity: EntityTicket, From: TicketInProgress, Action: ActionRequestInfo, To: TicketWaitingForUser, Roles: admins},
	{Entity: EntityTicket, From: TicketOpen, Action: ActionReply, To: TicketOpen, Roles: ticketUsers, NeedsReason: true},
	{Entity: EntityTicket, From: TicketInProgress, Action: ActionReply, To: TicketInProgress, Roles: ticketUsers, NeedsReason: true},
	{Entity: EntityTicket, From: TicketWaitingForUser, Action: ActionReply, To: TicketInProgress, Roles: ticketUsers, NeedsReason: true},
	{Entity: EntityTicket, From: TicketInProgress, Action: ActionResolve, To: TicketResolved, Roles: admins, NeedsReason: true},
	{Entity: EntityTicket, From: TicketResolved, Action: ActionClose, To: TicketClosed, Roles: closers},
}
