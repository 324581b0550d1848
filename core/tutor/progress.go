package tutor

import "sync"

// Experience increments per interaction kind.
const (
	PointsStudyTopic    = 10
	PointsExample       = 5
	PointsVideo         = 5
	PointsCorrectAnswer = 20
	PointsWrongAnswer   = 5
	PointsFreeForm      = 2
)

// ProgressBook tracks per-user, per-topic completion percentages in process
// memory. Credit is purely additive and deliberately not idempotent: calling
// twice doubles credit, so callers credit at most once per logical
// interaction.
type ProgressBook struct {
	mu     sync.Mutex
	topics map[string]map[string]*Progress // userID -> topic -> progress
}

func NewProgressBook() *ProgressBook {
	return &ProgressBook{topics: make(map[string]map[string]*Progress)}
}

// Init registers topics at zero progress without crediting anything.
// Existing progress is left untouched.
func (pb *ProgressBook) Init(userID string, topics []string) {
	pb.mu.Lock()
	defer pb.mu.Unlock()
	for _, topic := range topics {
		pb.get(userID, topic)
	}
}

// Credit adds points toward a topic, capping at 100. Completed flips exactly
// when the counter reaches 100.
func (pb *ProgressBook) Credit(userID, topic string, points int) Progress {
	pb.mu.Lock()
	defer pb.mu.Unlock()

	p := pb.get(userID, topic)
	p.Percent += points
	if p.Percent >= 100 {
		p.Percent = 100
	}
	p.Completed = p.Percent == 100
	return *p
}

// Topics returns the user's topics with their progress, insertion-independent
// (callers wanting stable order sort, or pass the ordering they initialized).
func (pb *ProgressBook) Topics(userID string, order []string) []TopicStatus {
	pb.mu.Lock()
	defer pb.mu.Unlock()

	byTopic, ok := pb.topics[userID]
	if !ok {
		return nil
	}
	statuses := make([]TopicStatus, 0, len(byTopic))
	seen := make(map[string]bool, len(byTopic))
	for _, topic := range order {
		if p, ok := byTopic[topic]; ok {
			statuses = append(statuses, TopicStatus{Name: topic, Progress: *p})
			seen[topic] = true
		}
	}
	for topic, p := range byTopic {
		if !seen[topic] {
			statuses = append(statuses, TopicStatus{Name: topic, Progress: *p})
		}
	}
	return statuses
}

// get assumes pb.mu is held.
func (pb *ProgressBook) get(userID, topic string) *Progress {
	byTopic, ok := pb.topics[userID]
	if !ok {
		byTopic = make(map[string]*Progress)
		pb.topics[userID] = byTopic
	}
	p, ok := byTopic[topic]
	if !ok {
		p = &Progress{}
		byTopic[topic] = p
	}
	return p
}
