package session

// validTransitions lists the steps reachable from each step. Starting steps are
// set by Registry.Create; clearing a session is always allowed.
var validTransitions = map[Step][]Step{
	StepChooseMode: {
		StepAwaitName,
		StepSearch,
	},
	StepAwaitName: {
		StepAwaitPhone,
	},
	StepAwaitPhone: {
		StepAwaitAddress,
	},
	StepAwaitAddress: {
		StepAwaitItemName,
		StepAwaitCategory,
	},
	StepAwaitCategory: {
		StepAwaitItemName,
		StepAwaitVariant,
	},
	StepAwaitItemName: {
		StepBrowseCatalog,
		StepAwaitVariant,
	},
	StepBrowseCatalog: {
		StepAwaitItemName,
		StepAwaitVariant,
	},
	StepAwaitVariant: {
		StepAwaitQuantity,
	},
	StepAwaitQuantity: {
		StepAwaitPrice,
	},
	StepAwaitPrice: {
		StepAwaitLink,
		StepConfirm,
	},
	StepAwaitLink: {
		StepConfirm,
	},
	StepFastAwaitBlock: {
		StepFastDisambiguate,
		StepConfirm,
	},
	StepFastDisambiguate: {
		StepFastAwaitBlock,
		StepConfirm,
	},
}

// IsTransitionAllowed reports whether moving from one step to another is valid.
// Staying on the same step is a re-prompt and always allowed.
func IsTransitionAllowed(from, to Step) bool {
	if from == to {
		return true
	}

	for _, step := range validTransitions[from] {
		if step == to {
			return true
		}
	}

	return false
}
