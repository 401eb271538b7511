package rbac

const (
	RoleJudge = "judge"
	RoleAdmin = "admin"
)

const (
	PermRubricView        = "rubric:view"
	PermRubricEdit        = "rubric:edit"
	PermEvaluationSubmit  = "evaluation:submit"
	PermEvaluationViewOwn = "evaluation:view-own"
	PermEvaluationViewAll = "evaluation:view-all"
	PermScheduleViewOwn   = "schedule:view-own"
	PermScheduleViewAll   = "schedule:view-all"
	PermStartupView       = "startup:view"
	PermStartupManage     = "startup:manage"
	PermJudgeManage       = "judge:manage"
	PermRoundView         = "round:view"
	PermRoundManage       = "round:manage"
	PermScheduleManage    = "schedule:manage"
	PermRankingsView      = "rankings:view"
	PermResultsExport     = "results:export"
)

// RolePermissions is the default policy.
var RolePermissions = map[string][]string{
	RoleJudge: {
		PermRubricView,
		PermEvaluationSubmit,
		PermEvaluationViewOwn,
		PermScheduleViewOwn,
		PermStartupView,
		PermRoundView,
	},
	RoleAdmin: {
		"*",
	},
}
