package usecase

import "sync"

// reactionSet is one emoji's users in the order they reacted
type reactionSet struct {
	users []string
}

func (s *reactionSet) index(username string) int {
	for i, u := range s.users {
		if u == username {
			return i
		}
	}
	return -1
}

// ReactionLedger maps message id -> emoji -> users.
// Entries live for the lifetime of the process.
type ReactionLedger struct {
	mu       sync.Mutex
	messages map[string]map[string]*reactionSet
}

// NewReactionLedger creates an empty ledger
func NewReactionLedger() *ReactionLedger {
	return &ReactionLedger{
		messages: make(map[string]map[string]*reactionSet),
	}
}

// Toggle adds username to the emoji's set, or removes it if already present.
// An emoji whose set becomes empty is dropped. The full reaction map of the message is returned.
func (l *ReactionLedger) Toggle(messageID, emoji, username string) map[string][]string {
	l.mu.Lock()
	defer l.mu.Unlock()

	emojis, ok := l.messages[messageID]
	if !ok {
		emojis = make(map[string]*reactionSet)
		l.messages[messageID] = emojis
	}

	set, ok := emojis[emoji]
	if !ok {
		set = &reactionSet{}
		emojis[emoji] = set
	}

	if i := set.index(username); i >= 0 {
		set.users = append(set.users[:i], set.users[i+1:]...)
		if len(set.users) == 0 {
			delete(emojis, emoji)
		}
	} else {
		set.users = append(set.users, username)
	}

	if len(emojis) == 0 {
		delete(l.messages, messageID)
	}

	return serialize(emojis)
}

// Reactions returns the current reaction map of a message
func (l *ReactionLedger) Reactions(messageID string) map[string][]string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return serialize(l.messages[messageID])
}

// Len returns the number of messages with at least one reaction
func (l *ReactionLedger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.messages)
}

func serialize(emojis map[string]*reactionSet) map[string][]string {
	out := make(map[string][]string, len(emojis))
	for emoji, set := range emojis {
		if len(set.users) == 0 {
			continue
		}
		users := make([]string, len(set.users))
		copy(users, set.users)
		out[emoji] = users
	}
	return out
}
