package mocks

import "sync"

// MockMessageQueue is a mock implementation of MessageQueue interface
type MockMessageQueue struct {
	PublishedMessages map[string][][]byte
	PublishFunc       func(topic string, data []byte) error
	CloseFunc         func() error
	mu                sync.Mutex
}

func NewMockMessageQueue() *MockMessageQueue {
	return &MockMessageQueue{
		PublishedMessages: make(map[string][][]byte),
	}
}

func (m *MockMessageQueue) Publish(topic string, data []byte) error {
	if m.PublishFunc != nil {
		return m.PublishFunc(topic, data)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.PublishedMessages[topic] = append(m.PublishedMessages[topic], data)
	return nil
}

func (m *MockMessageQueue) Close() error {
	if m.CloseFunc != nil {
		return m.CloseFunc()
	}
	return nil
}

// GetPublishedMessages returns all messages published to a topic
func (m *MockMessageQueue) GetPublishedMessages(topic string) [][]byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.PublishedMessages[topic]
}
