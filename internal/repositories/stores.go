package repositories

// Stores bundles every repository used by the permission models and the
// administrative operations. Both storage backends provide a constructor.
type Stores struct {
	RoleLevels    RoleLevelRepository
	CommandLevels CommandLevelRepository
	Overrides     OverrideRepository
	Groups        GroupRepository
	Rules         RuleRepository
}
