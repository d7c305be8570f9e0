package eventbus

type RequirementEventType string

const (
	RequirementEventSubmitted     RequirementEventType = "Submitted"
	RequirementEventStatusChanged RequirementEventType = "StatusChanged"
)

type RequirementEvent struct {
	Type           RequirementEventType
	RequirementID  string
	UserID         string
	Title          string
	Status         string
	PreviousStatus string
}

type RequirementEventHandler = Handler[RequirementEvent]
type RequirementEventBus = Bus[RequirementEventType, RequirementEvent]

func NewRequirementEventBus() *RequirementEventBus {
	return NewBus[RequirementEventType, RequirementEvent]()
}
