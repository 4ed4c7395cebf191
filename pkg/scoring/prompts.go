package scoring

import (
	"fmt"
	"strings"

	"graph-qa-be/pkg/traversal"
)

func buildRefinePrompt(history []traversal.ChatTurn, question string) string {
	var prompt strings.Builder

	prompt.WriteString("<task>\n")
	prompt.WriteString("Rewrite the user's latest question so it stands alone, resolving every\n")
	prompt.WriteString("pronoun and implicit reference using the conversation history.\n")
	prompt.WriteString("</task>\n\n")

	prompt.WriteString("<conversation>\n")
	for _, turn := range history {
		prompt.WriteString(fmt.Sprintf("%s: %s\n", turn.Role, turn.Content))
	}
	prompt.WriteString("</conversation>\n\n")

	prompt.WriteString("<latest_question>\n")
	prompt.WriteString(question)
	prompt.WriteString("\n</latest_question>\n\n")

	prompt.WriteString("<output_format>\n")
	prompt.WriteString("Respond with ONLY valid JSON in this exact structure:\n\n")
	prompt.WriteString("{\n")
	prompt.WriteString("  \"refined_question\": \"the standalone question\"\n")
	prompt.WriteString("}\n\n")
	prompt.WriteString("IMPORTANT: Output ONLY the JSON. No preamble, no explanation outside the JSON.\n")
	prompt.WriteString("</output_format>\n")

	return prompt.String()
}

func buildPlanPrompt(question, previousAnalysis string) string {
	var prompt strings.Builder

	prompt.WriteString("<task>\n")
	prompt.WriteString("You answer questions by walking a personal knowledge graph: concepts link\n")
	prompt.WriteString("to atomic facts, facts link to source passages. Before walking, write a\n")
	prompt.WriteString("short step-by-step plan of what evidence would answer the question and in\n")
	prompt.WriteString("which order to look for it.\n")
	prompt.WriteString("</task>\n\n")

	prompt.WriteString("<question>\n")
	prompt.WriteString(question)
	prompt.WriteString("\n</question>\n\n")

	if previousAnalysis != "" {
		prompt.WriteString("<previous_analysis>\n")
		prompt.WriteString(previousAnalysis)
		prompt.WriteString("\n</previous_analysis>\n\n")
	}

	prompt.WriteString("<output_format>\n")
	prompt.WriteString("Respond with ONLY valid JSON in this exact structure:\n\n")
	prompt.WriteString("{\n")
	prompt.WriteString("  \"rational_plan\": \"numbered steps, one line each\"\n")
	prompt.WriteString("}\n\n")
	prompt.WriteString("IMPORTANT: Output ONLY the JSON. No preamble, no explanation outside the JSON.\n")
	prompt.WriteString("</output_format>\n")

	return prompt.String()
}

func buildConceptPrompt(question, plan string, candidates []traversal.Concept) string {
	var prompt strings.Builder

	prompt.WriteString("<task>\n")
	prompt.WriteString("Score each candidate concept by how useful expanding it would be for\n")
	prompt.WriteString("answering the question, 0 (useless) to 100 (certainly needed). Mark a\n")
	prompt.WriteString("concept as a source when its own definition likely contains the answer.\n")
	prompt.WriteString("Only score concepts from the candidate list. Never invent names.\n")
	prompt.WriteString("</task>\n\n")

	prompt.WriteString("<question>\n")
	prompt.WriteString(question)
	prompt.WriteString("\n</question>\n\n")

	prompt.WriteString("<plan>\n")
	prompt.WriteString(plan)
	prompt.WriteString("\n</plan>\n\n")

	prompt.WriteString("<candidates>\n")
	for _, c := range candidates {
		prompt.WriteString("- ")
		prompt.WriteString(c.Name)
		prompt.WriteString("\n")
	}
	prompt.WriteString("</candidates>\n\n")

	prompt.WriteString("<output_format>\n")
	prompt.WriteString("Respond with ONLY valid JSON in this exact structure:\n\n")
	prompt.WriteString("{\n")
	prompt.WriteString("  \"concepts\": [\n")
	prompt.WriteString("    {\"name\": \"candidate name verbatim\", \"score\": 0, \"is_source\": false}\n")
	prompt.WriteString("  ]\n")
	prompt.WriteString("}\n\n")
	prompt.WriteString("IMPORTANT: Output ONLY the JSON. No preamble, no explanation outside the JSON.\n")
	prompt.WriteString("</output_format>\n")

	return prompt.String()
}

func buildFactPrompt(question, plan string, facts []traversal.Fact) string {
	var prompt strings.Builder

	prompt.WriteString("<task>\n")
	prompt.WriteString("Each fact below was extracted from one source passage (its chunk_id).\n")
	prompt.WriteString("Select the chunk_ids whose passages are worth reading in full to answer\n")
	prompt.WriteString("the question, and write a one-paragraph annotation of what the selected\n")
	prompt.WriteString("facts already tell you.\n")
	prompt.WriteString("</task>\n\n")

	prompt.WriteString("<question>\n")
	prompt.WriteString(question)
	prompt.WriteString("\n</question>\n\n")

	prompt.WriteString("<plan>\n")
	prompt.WriteString(plan)
	prompt.WriteString("\n</plan>\n\n")

	prompt.WriteString("<facts>\n")
	for _, f := range facts {
		prompt.WriteString(fmt.Sprintf("[chunk_id: %s] %s\n", f.ChunkID, f.Content))
	}
	prompt.WriteString("</facts>\n\n")

	prompt.WriteString("<output_format>\n")
	prompt.WriteString("Respond with ONLY valid JSON in this exact structure:\n\n")
	prompt.WriteString("{\n")
	prompt.WriteString("  \"status\": \"one short progress sentence for the user\",\n")
	prompt.WriteString("  \"annotation\": \"what the selected facts establish\",\n")
	prompt.WriteString("  \"chunk_ids\": [\"only ids that appear in the facts\"]\n")
	prompt.WriteString("}\n\n")
	prompt.WriteString("IMPORTANT: Output ONLY the JSON. No preamble, no explanation outside the JSON.\n")
	prompt.WriteString("</output_format>\n")

	return prompt.String()
}

func buildChunkPrompt(question, plan string, chunk traversal.Chunk, notebook []traversal.NotebookEntry) string {
	var prompt strings.Builder

	prompt.WriteString("<task>\n")
	prompt.WriteString("Read the passage and decide what to do next. Take a note of anything in\n")
	prompt.WriteString("it that helps answer the question, then pick exactly one action:\n")
	prompt.WriteString("- queue_previous_chunk: the passage cuts off useful context at its start\n")
	prompt.WriteString("- queue_next_chunk: the passage cuts off useful context at its end\n")
	prompt.WriteString("- read_neighbouring_nodes: the notes so far point at related concepts\n")
	prompt.WriteString("- answer: the notebook now holds enough evidence to answer\n")
	prompt.WriteString("- skip: the passage is irrelevant\n")
	prompt.WriteString("</task>\n\n")

	prompt.WriteString("<question>\n")
	prompt.WriteString(question)
	prompt.WriteString("\n</question>\n\n")

	prompt.WriteString("<plan>\n")
	prompt.WriteString(plan)
	prompt.WriteString("\n</plan>\n\n")

	if len(notebook) > 0 {
		prompt.WriteString("<notebook>\n")
		for _, entry := range notebook {
			prompt.WriteString("- ")
			prompt.WriteString(entry.Content)
			prompt.WriteString("\n")
		}
		prompt.WriteString("</notebook>\n\n")
	}

	prompt.WriteString("<passage>\n")
	prompt.WriteString(chunk.Content)
	prompt.WriteString("\n</passage>\n\n")

	prompt.WriteString("<output_format>\n")
	prompt.WriteString("Respond with ONLY valid JSON in this exact structure:\n\n")
	prompt.WriteString("{\n")
	prompt.WriteString("  \"note\": \"evidence worth keeping, empty string if none\",\n")
	prompt.WriteString("  \"reason\": \"why the note matters\",\n")
	prompt.WriteString("  \"action\": \"one of the five actions verbatim\",\n")
	prompt.WriteString("  \"status\": \"one short progress sentence for the user\"\n")
	prompt.WriteString("}\n\n")
	prompt.WriteString("IMPORTANT: Output ONLY the JSON. No preamble, no explanation outside the JSON.\n")
	prompt.WriteString("</output_format>\n")

	return prompt.String()
}

func buildAppraisePrompt(question string, chunk traversal.Chunk) string {
	var prompt strings.Builder

	prompt.WriteString("<task>\n")
	prompt.WriteString("The passage below was retrieved by similarity to the question. Extract\n")
	prompt.WriteString("whatever in it helps answer the question as a single note. Return an\n")
	prompt.WriteString("empty note when nothing in the passage is useful.\n")
	prompt.WriteString("</task>\n\n")

	prompt.WriteString("<question>\n")
	prompt.WriteString(question)
	prompt.WriteString("\n</question>\n\n")

	prompt.WriteString("<passage>\n")
	prompt.WriteString(chunk.Content)
	prompt.WriteString("\n</passage>\n\n")

	prompt.WriteString("<output_format>\n")
	prompt.WriteString("Respond with ONLY valid JSON in this exact structure:\n\n")
	prompt.WriteString("{\n")
	prompt.WriteString("  \"note\": \"evidence worth keeping, empty string if none\",\n")
	prompt.WriteString("  \"reason\": \"why the note matters\",\n")
	prompt.WriteString("  \"status\": \"one short progress sentence for the user\"\n")
	prompt.WriteString("}\n\n")
	prompt.WriteString("IMPORTANT: Output ONLY the JSON. No preamble, no explanation outside the JSON.\n")
	prompt.WriteString("</output_format>\n")

	return prompt.String()
}
