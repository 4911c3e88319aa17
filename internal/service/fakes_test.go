package service_test

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"entity-chat-service/internal/logging"
	"entity-chat-service/internal/models"
	"entity-chat-service/internal/repositories"
	"entity-chat-service/internal/service"
)

// memChats is a versioned in-memory ChatRepository.
type memChats struct {
	mu        sync.Mutex
	docs      map[primitive.ObjectID]*models.Chat
	conflicts int
	loads     int
	saves     int
}

func newMemChats() *memChats {
	return &memChats{docs: map[primitive.ObjectID]*models.Chat{}}
}

func clone(c *models.Chat) *models.Chat {
	out := *c
	out.Participants = append([]models.Participant{}, c.Participants...)
	out.Messages = make([]models.Message, len(c.Messages))
	for i, m := range c.Messages {
		m.IsRead = append([]models.ReadReceipt{}, m.IsRead...)
		out.Messages[i] = m
	}
	return &out
}

func (r *memChats) CreateChat(_ context.Context, chat *models.Chat) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if chat.ID.IsZero() {
		chat.ID = primitive.NewObjectID()
	}
	chat.Version = 1
	r.docs[chat.ID] = clone(chat)
	return nil
}

func (r *memChats) GetChat(_ context.Context, id primitive.ObjectID) (*models.Chat, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.loads++
	doc, ok := r.docs[id]
	if !ok {
		return nil, repositories.ErrChatNotFound
	}
	return clone(doc), nil
}

func (r *memChats) ListActiveChatsForUser(_ context.Context, userID string, entityType models.EntityType) ([]models.Chat, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []models.Chat{}
	for _, doc := range r.docs {
		if !doc.IsActive || !doc.HasParticipant(userID) {
			continue
		}
		if entityType != "" && doc.EntityType != entityType {
			continue
		}
		out = append(out, *clone(doc))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].LastActivity.After(out[j].LastActivity) })
	return out, nil
}

// SaveChat fails with a conflict while r.conflicts > 0, as if another writer
// had saved first.
func (r *memChats) SaveChat(_ context.Context, chat *models.Chat) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.docs[chat.ID]
	if !ok {
		return repositories.ErrChatNotFound
	}
	if r.conflicts > 0 {
		r.conflicts--
		stored.Version++
	}
	if stored.Version != chat.Version {
		return repositories.ErrVersionConflict
	}
	chat.Version++
	r.docs[chat.ID] = clone(chat)
	r.saves++
	return nil
}

func (r *memChats) stored(id string) *models.Chat {
	r.mu.Lock()
	defer r.mu.Unlock()
	oid, _ := primitive.ObjectIDFromHex(id)
	return clone(r.docs[oid])
}

// memUsers is a fixed user directory.
type memUsers struct {
	byID map[string]models.User
}

func newMemUsers(users ...models.User) *memUsers {
	m := &memUsers{byID: map[string]models.User{}}
	for _, u := range users {
		m.byID[u.ID] = u
	}
	return m
}

func (m *memUsers) FindByIDs(_ context.Context, ids []string) ([]models.User, error) {
	out := []models.User{}
	for _, id := range ids {
		if u, ok := m.byID[id]; ok {
			out = append(out, u)
		}
	}
	return out, nil
}

func (m *memUsers) FindByID(_ context.Context, id string) (models.User, error) {
	if u, ok := m.byID[id]; ok {
		return u, nil
	}
	return models.User{}, repositories.ErrUserNotFound
}

func (m *memUsers) ListActive(_ context.Context) ([]models.User, error) {
	out := []models.User{}
	for _, u := range m.byID {
		if u.Active {
			out = append(out, u)
		}
	}
	return out, nil
}

func (m *memUsers) ListActiveByRoles(_ context.Context, roles []string) ([]models.User, error) {
	out := []models.User{}
	for _, u := range m.byID {
		for _, r := range roles {
			if u.Active && u.Role == r {
				out = append(out, u)
			}
		}
	}
	return out, nil
}

type published struct {
	Room    string
	Event   string
	Payload map[string]any
}

// recorder is a Notifier that keeps what it was given.
type recorder struct {
	mu     sync.Mutex
	events []published
}

func (r *recorder) Publish(_ context.Context, room, event string, payload any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, _ := payload.(map[string]any)
	r.events = append(r.events, published{Room: room, Event: event, Payload: p})
}

func (r *recorder) names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.Event)
	}
	return out
}

func (r *recorder) last() published {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.events[len(r.events)-1]
}

// clock advances one second per reading.
type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Second)
	return c.now
}

var directory = []models.User{
	{ID: "admin1", Name: "Alice", Surname: "Martin", Role: models.RoleAdmin, Active: true},
	{ID: "super1", Name: "Sami", Surname: "Roux", Role: models.RoleSuperAdmin, Active: true},
	{ID: "resp1", Name: "Rita", Surname: "Blanc", Role: models.RoleResponsable, Active: true},
	{ID: "user1", Name: "Ugo", Surname: "Petit", Role: models.RoleUser, Active: true},
	{ID: "user2", Name: "Una", Surname: "Noir", Role: models.RoleUser, Active: true},
	{ID: "gone", Name: "Gil", Surname: "Vide", Role: models.RoleUser, Active: false},
}

type fixture struct {
	svc      *service.ChatService
	chats    *memChats
	users    *memUsers
	notifier *recorder
	clock    *clock
}

func newFixture(t *testing.T, opts ...service.Option) *fixture {
	t.Helper()
	f := &fixture{
		chats:    newMemChats(),
		users:    newMemUsers(directory...),
		notifier: &recorder{},
		clock:    &clock{now: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)},
	}
	opts = append([]service.Option{service.WithClock(f.clock.Now)}, opts...)
	f.svc = service.NewChatService(f.chats, f.users, nil, f.notifier, logging.Nop(), opts...)
	return f
}

// createChat creates a task chat by admin1 with the given participant ids.
func (f *fixture) createChat(t *testing.T, ids ...string) *service.ChatView {
	t.Helper()
	inputs := make([]service.ParticipantInput, 0, len(ids))
	for _, id := range ids {
		inputs = append(inputs, service.ParticipantInput{UserID: id})
	}
	chat, err := f.svc.CreateChat(context.Background(), service.CreateChatInput{
		EntityType:   models.EntityTask,
		EntityID:     "T1",
		CreatorID:    "admin1",
		Participants: inputs,
		Title:        "Suivi T1",
	})
	if err != nil {
		t.Fatalf("create chat: %v", err)
	}
	return chat
}
