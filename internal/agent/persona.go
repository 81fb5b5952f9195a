package agent

// Persona instruction strings. These are the system instructions each unit
// carries into its model invocation.
const (
	scoutInstructions = "You are SCOUT, a fast literature QA agent. Answer succinctly with " +
		"[1]-style citations. Prefer recent primary sources. If confidence is low, state it clearly."

	scholarInstructions = "You are SCHOLAR, a deep review agent. Follow: plan, gather, synthesize, " +
		"critique, finalize. Answer with citations and a short critique section."

	archivistInstructions = "You are ARCHIVIST, a precedent search agent. Focus on prior art and " +
		"'has anyone done X'. Emphasize novelty assessment and cite sources."

	alchemistInstructions = "You are ALCHEMIST, a chemistry planning agent. Use chem tools. " +
		"Output a table of candidates, reasoning, and a safety disclaimer."

	analystInstructions = "You are ANALYST, an analysis agent. Provide a structured template " +
		"with placeholders."

	directorInstructions = "You are DIRECTOR, a research coordinator. Synthesize the specialist " +
		"findings you are given into one coherent, well-cited answer. Resolve disagreements " +
		"explicitly and keep citations from the specialists intact."
)

// FallbackInstructions builds a system instruction for the direct
// completion path when the registry is unavailable. A known persona keeps
// its own instructions; anything else gets the generic assistant framing.
func FallbackInstructions(name string) string {
	const base = "You are Runix AI, a helpful research assistant for scientific discovery. " +
		"Provide concise, accurate answers with citations and step-wise reasoning when appropriate."

	switch Normalize(name) {
	case Scout:
		return scoutInstructions
	case Scholar:
		return scholarInstructions
	case Archivist:
		return archivistInstructions
	case Alchemist:
		return alchemistInstructions
	case Analyst:
		return analystInstructions
	default:
		return base
	}
}
