package advisor

// advisePrompt wraps the finance snapshot with instructions for a short
// free-text commentary.
func advisePrompt(snapshotJSON string) string {
	return "You are a personal finance advisor reviewing a household's accounts.\n\n" +
		"Task:\n" +
		"- Read the JSON snapshot below (amounts are pre-formatted in the user's base currency).\n" +
		"- Comment on net worth, spending this month, and anything unusual in recent transactions.\n" +
		"- Suggest at most three concrete, low-effort improvements.\n\n" +
		"Rules:\n" +
		"- Keep it under 200 words.\n" +
		"- Plain text only. No Markdown, no code fences, no JSON.\n" +
		"- Never invent numbers that are not in the snapshot.\n\n" +
		"Snapshot:\n" + snapshotJSON + "\n"
}

// chatPrompt wraps the holdings of one investment account plus the user's
// message. The model replies with plain text, or with the strict JSON object
// form when the conversation produced an updated holdings list.
func chatPrompt(holdingsJSON, message string) string {
	return "You are a portfolio assistant for a single investment account.\n\n" +
		"Current holdings (JSON array, amounts in the account currency):\n" +
		holdingsJSON + "\n\n" +
		"Task:\n" +
		"- Answer the user's message below. An attached image, if any, shows a brokerage screenshot to read holdings from.\n" +
		"- If the conversation results in an updated holdings list, output STRICT JSON only:\n" +
		"  {\"response\": string, \"holdings\": [{\"name\": string, \"amount\": number, \"dailyChange\": number, \"quantity\": number}]}\n" +
		"- \"holdings\" must be the COMPLETE new list, not a diff. Omit \"dailyChange\" and \"quantity\" when unknown.\n" +
		"- Otherwise reply with plain text only.\n\n" +
		"Rules:\n" +
		"- Do NOT wrap the response in code fences.\n" +
		"- Do NOT use ```json or any Markdown.\n" +
		"- When outputting JSON it must begin with \"{\" and end with \"}\".\n\n" +
		"User message:\n" + message + "\n"
}
