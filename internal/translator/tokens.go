package translator

// EstimateTokens approximates a token count as ceil(len(text)/4), where len
// is the byte length. It feeds dashboard totals only.
func EstimateTokens(text string) int64 {
	return int64((len(text) + 3) / 4)
}

// EstimateMessages sums EstimateTokens over every message, system included.
func EstimateMessages(msgs []ChatMessage) int64 {
	var total int64
	for _, m := range msgs {
		total += EstimateTokens(string(m.Content))
	}
	return total
}
