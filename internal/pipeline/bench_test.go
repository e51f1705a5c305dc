package pipeline

import (
	"fmt"
	"testing"

	"github.com/theirongolddev/gptrecap/internal/source"
)

// syntheticConversations builds n conversations of turns messages each.
func syntheticConversations(n, turns int) []source.Conversation {
	convs := make([]source.Conversation, n)
	for i := range convs {
		conv := source.Conversation{ID: fmt.Sprintf("c%d", i), Title: "bench"}
		for j := 0; j < turns; j++ {
			role := "user"
			if j%2 == 1 {
				role = "assistant"
			}
			conv.Nodes = append(conv.Nodes, source.Node{
				ID: fmt.Sprintf("n%03d", j),
				Message: &source.Message{
					ID:         fmt.Sprintf("m%d-%d", i, j),
					Role:       role,
					CreateTime: ts(float64(1700000000 + i*3600 + j*30)),
					Content:    textContent("the quick brown fox jumps over the lazy dog's back"),
				},
			})
		}
		convs[i] = conv
	}
	return convs
}

func BenchmarkFlatten(b *testing.B) {
	convs := syntheticConversations(500, 20)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = Flatten(convs)
	}
}

func BenchmarkFlattenParallel(b *testing.B) {
	convs := syntheticConversations(500, 20)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = FlattenParallel(convs, nil)
	}
}

func BenchmarkSummarise(b *testing.B) {
	msgs := Flatten(syntheticConversations(500, 20))

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := Summarise(msgs); err != nil {
			b.Fatal(err)
		}
	}
}
