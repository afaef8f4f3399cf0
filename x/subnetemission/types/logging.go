package types

type SubSystem uint8

const (
	Epoch SubSystem = iota
	Stake
	Weights
	Emission
	Settings
	Genesis
)

func (s SubSystem) String() string {
	switch s {
	case Epoch:
		return "epoch"
	case Stake:
		return "stake"
	case Weights:
		return "weights"
	case Emission:
		return "emission"
	case Settings:
		return "params"
	case Genesis:
		return "genesis"
	default:
		return "unknown"
	}
}
