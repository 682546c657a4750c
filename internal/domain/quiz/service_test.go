package quiz

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"

	"github.com/masab-afzaal/mindbuddy/internal/ai"
)

type mockRepository struct {
	topics    map[string]*QuizTopic
	quizzes   map[uuid.UUID]*Quiz
	results   map[uuid.UUID]*QuizResult
	histories map[string]*QuizHistory
}

func newMockRepository() *mockRepository {
	return &mockRepository{
		topics:    make(map[string]*QuizTopic),
		quizzes:   make(map[uuid.UUID]*Quiz),
		results:   make(map[uuid.UUID]*QuizResult),
		histories: make(map[string]*QuizHistory),
	}
}

func historyKey(userID, topicID uuid.UUID) string {
	return userID.String() + ":" + topicID.String()
}

func (m *mockRepository) GetOrCreateTopic(ctx context.Context, name string) (*QuizTopic, error) {
	name = strings.TrimSpace(name)
	if t, ok := m.topics[name]; ok {
		return t, nil
	}
	t := &QuizTopic{ID: uuid.New(), Name: name}
	m.topics[name] = t
	return t, nil
}

func (m *mockRepository) CreateQuiz(ctx context.Context, quiz *Quiz) error {
	m.quizzes[quiz.ID] = quiz
	return nil
}

func (m *mockRepository) FindQuiz(ctx context.Context, id uuid.UUID) (*Quiz, error) {
	quiz, ok := m.quizzes[id]
	if !ok {
		return nil, ErrQuizNotFound
	}
	return quiz, nil
}

func (m *mockRepository) CreateResult(ctx context.Context, result *QuizResult) error {
	m.results[result.ID] = result
	return nil
}

func (m *mockRepository) FindResult(ctx context.Context, userID, id uuid.UUID) (*QuizResult, error) {
	result, ok := m.results[id]
	if !ok || result.UserID != userID {
		return nil, ErrResultNotFound
	}
	return result, nil
}

func (m *mockRepository) SaveResult(ctx context.Context, result *QuizResult) error {
	m.results[result.ID] = result
	return nil
}

func (m *mockRepository) CountResults(ctx context.Context, userID uuid.UUID) (int64, error) {
	var count int64
	for _, r := range m.results {
		if r.UserID == userID {
			count++
		}
	}
	return count, nil
}

func (m *mockRepository) LatestHistory(ctx context.Context, userID, topicID uuid.UUID) (*QuizHistory, error) {
	return m.histories[historyKey(userID, topicID)], nil
}

func (m *mockRepository) UpsertHistory(ctx context.Context, userID, topicID uuid.UUID, results datatypes.JSON) error {
	key := historyKey(userID, topicID)
	if h, ok := m.histories[key]; ok {
		h.Results = results
		return nil
	}
	m.histories[key] = &QuizHistory{
		ID:      uuid.New(),
		UserID:  userID,
		TopicID: topicID,
		Results: results,
	}
	return nil
}

func (m *mockRepository) ListHistory(ctx context.Context, userID uuid.UUID) ([]QuizHistory, error) {
	var out []QuizHistory
	for _, h := range m.histories {
		if h.UserID == userID {
			out = append(out, *h)
		}
	}
	return out, nil
}

type mockAIClient struct {
	reply    string
	err      error
	requests []ai.Request
}

func (m *mockAIClient) Complete(ctx context.Context, req ai.Request) (*ai.Completion, error) {
	m.requests = append(m.requests, req)
	if m.err != nil {
		return nil, m.err
	}
	return &ai.Completion{Content: m.reply, Model: "llama3-8b-8192"}, nil
}

func (m *mockAIClient) Model() string { return "llama3-8b-8192" }

func testLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func questionsJSON(n int) string {
	qs := make([]Question, 0, n)
	for i := 0; i < n; i++ {
		qs = append(qs, Question{
			Question: "Question?",
			Options:  []string{"A", "B", "C", "D"},
		})
	}
	raw, _ := json.Marshal(qs)
	return string(raw)
}

func TestCreateQuiz(t *testing.T) {
	repo := newMockRepository()
	client := &mockAIClient{reply: questionsJSON(3)}
	svc := NewService(repo, client, testLogger())
	userID := uuid.New()

	quiz, err := svc.CreateQuiz(context.Background(), userID, "Stress Management", 3)
	require.NoError(t, err)
	assert.Equal(t, 3, quiz.Length)
	assert.Equal(t, "Stress Management", quiz.Topic.Name)
	assert.Len(t, repo.quizzes, 1)

	var questions []Question
	require.NoError(t, json.Unmarshal(quiz.Questions, &questions))
	assert.Len(t, questions, 3)

	require.Len(t, client.requests, 1)
	assert.True(t, client.requests[0].JSONMode)
	assert.Contains(t, client.requests[0].System, "3-question")
}

func TestCreateQuizInvalidLength(t *testing.T) {
	svc := NewService(newMockRepository(), &mockAIClient{}, testLogger())

	_, err := svc.CreateQuiz(context.Background(), uuid.New(), "Sleep", 4)
	assert.ErrorIs(t, err, ErrInvalidLength)
}

func TestCreateQuizWrongQuestionCount(t *testing.T) {
	repo := newMockRepository()
	client := &mockAIClient{reply: questionsJSON(4)}
	svc := NewService(repo, client, testLogger())

	_, err := svc.CreateQuiz(context.Background(), uuid.New(), "Sleep", 5)
	assert.ErrorIs(t, err, ErrQuestionCount)
	assert.Empty(t, repo.quizzes)
}

func TestCreateQuizUnparseableResponse(t *testing.T) {
	repo := newMockRepository()
	client := &mockAIClient{reply: "here are your questions!"}
	svc := NewService(repo, client, testLogger())

	_, err := svc.CreateQuiz(context.Background(), uuid.New(), "Sleep", 3)
	assert.ErrorIs(t, err, ErrInvalidQuestions)
	assert.Empty(t, repo.quizzes)
}

func TestCreateQuizObjectWrappedArray(t *testing.T) {
	repo := newMockRepository()
	client := &mockAIClient{reply: `{"questions": ` + questionsJSON(5) + `}`}
	svc := NewService(repo, client, testLogger())

	quiz, err := svc.CreateQuiz(context.Background(), uuid.New(), "Mindfulness", 5)
	require.NoError(t, err)

	var questions []Question
	require.NoError(t, json.Unmarshal(quiz.Questions, &questions))
	assert.Len(t, questions, 5)
}

func createQuizForTest(t *testing.T, repo *mockRepository, userID uuid.UUID, topic string, length int) *Quiz {
	t.Helper()
	tp, err := repo.GetOrCreateTopic(context.Background(), topic)
	require.NoError(t, err)
	quiz := &Quiz{
		ID:        uuid.New(),
		UserID:    userID,
		TopicID:   tp.ID,
		Topic:     *tp,
		Length:    length,
		Questions: datatypes.JSON(questionsJSON(length)),
	}
	require.NoError(t, repo.CreateQuiz(context.Background(), quiz))
	return quiz
}

func TestSubmitAnswers(t *testing.T) {
	repo := newMockRepository()
	client := &mockAIClient{reply: "You're doing great."}
	svc := NewService(repo, client, testLogger())
	userID := uuid.New()
	quiz := createQuizForTest(t, repo, userID, "Stress Management", 3)

	result, err := svc.SubmitAnswers(context.Background(), userID, quiz.ID, []string{"A", "B", "C"})
	require.NoError(t, err)
	assert.Equal(t, "You're doing great.", result.Insights)
	assert.Nil(t, result.Liked)

	var answered []ai.AnsweredQuestion
	require.NoError(t, json.Unmarshal(result.Answers, &answered))
	require.Len(t, answered, 3)
	assert.Equal(t, "A", answered[0].Answer)

	history, err := repo.LatestHistory(context.Background(), userID, quiz.TopicID)
	require.NoError(t, err)
	require.NotNil(t, history)
	assert.JSONEq(t, string(result.Answers), string(history.Results))

	require.Len(t, client.requests, 1)
	assert.Contains(t, client.requests[0].System, "first time")
}

func TestSubmitAnswersWrongCount(t *testing.T) {
	repo := newMockRepository()
	svc := NewService(repo, &mockAIClient{reply: "x"}, testLogger())
	userID := uuid.New()
	quiz := createQuizForTest(t, repo, userID, "Sleep", 3)

	_, err := svc.SubmitAnswers(context.Background(), userID, quiz.ID, []string{"A"})
	assert.ErrorIs(t, err, ErrAnswerCount)
	assert.Empty(t, repo.results)
}

func TestSubmitAnswersComparesWithHistory(t *testing.T) {
	repo := newMockRepository()
	client := &mockAIClient{reply: "You improved."}
	svc := NewService(repo, client, testLogger())
	userID := uuid.New()
	quiz := createQuizForTest(t, repo, userID, "Stress Management", 3)

	prev, _ := json.Marshal([]ai.AnsweredQuestion{{Question: "Question?", Answer: "D"}})
	require.NoError(t, repo.UpsertHistory(context.Background(), userID, quiz.TopicID, datatypes.JSON(prev)))

	_, err := svc.SubmitAnswers(context.Background(), userID, quiz.ID, []string{"A", "B", "C"})
	require.NoError(t, err)

	require.Len(t, client.requests, 1)
	assert.Contains(t, client.requests[0].System, "took this quiz before")
	assert.Contains(t, client.requests[0].System, "Previous answers")
}

func TestSubmitAnswersInsightFallback(t *testing.T) {
	repo := newMockRepository()
	client := &mockAIClient{err: errors.New("rate limited")}
	svc := NewService(repo, client, testLogger())
	userID := uuid.New()
	quiz := createQuizForTest(t, repo, userID, "Sleep", 3)

	result, err := svc.SubmitAnswers(context.Background(), userID, quiz.ID, []string{"A", "B", "C"})
	require.NoError(t, err)
	assert.Equal(t, ai.InsightFallback, result.Insights)
	assert.Len(t, repo.results, 1)
}

func TestSubmitAnswersOtherUsersQuiz(t *testing.T) {
	repo := newMockRepository()
	svc := NewService(repo, &mockAIClient{reply: "x"}, testLogger())
	owner := uuid.New()
	quiz := createQuizForTest(t, repo, owner, "Sleep", 3)

	_, err := svc.SubmitAnswers(context.Background(), uuid.New(), quiz.ID, []string{"A", "B", "C"})
	assert.ErrorIs(t, err, ErrQuizNotFound)
}

func TestLikeAndDislikeInsight(t *testing.T) {
	repo := newMockRepository()
	svc := NewService(repo, &mockAIClient{reply: "Nice work."}, testLogger())
	userID := uuid.New()
	quiz := createQuizForTest(t, repo, userID, "Sleep", 3)

	result, err := svc.SubmitAnswers(context.Background(), userID, quiz.ID, []string{"A", "B", "C"})
	require.NoError(t, err)

	liked, err := svc.LikeInsight(context.Background(), userID, result.ID)
	require.NoError(t, err)
	require.NotNil(t, liked.Liked)
	assert.True(t, *liked.Liked)

	disliked, err := svc.DislikeInsight(context.Background(), userID, result.ID)
	require.NoError(t, err)
	require.NotNil(t, disliked.Liked)
	assert.False(t, *disliked.Liked)
}

func TestRegenerateInsights(t *testing.T) {
	repo := newMockRepository()
	client := &mockAIClient{reply: "Original insight."}
	svc := NewService(repo, client, testLogger())
	userID := uuid.New()
	quiz := createQuizForTest(t, repo, userID, "Stress Management", 3)

	result, err := svc.SubmitAnswers(context.Background(), userID, quiz.ID, []string{"A", "B", "C"})
	require.NoError(t, err)

	_, err = svc.DislikeInsight(context.Background(), userID, result.ID)
	require.NoError(t, err)

	client.reply = "A gentler take."
	regenerated, err := svc.RegenerateInsights(context.Background(), userID, result.ID)
	require.NoError(t, err)
	assert.Equal(t, "A gentler take.", regenerated.Insights)
	assert.Nil(t, regenerated.Liked)

	last := client.requests[len(client.requests)-1]
	assert.Contains(t, last.System, "DISLIKED")
	assert.Contains(t, last.System, "Original insight.")
}

func TestCountResults(t *testing.T) {
	repo := newMockRepository()
	svc := NewService(repo, &mockAIClient{reply: "x"}, testLogger())
	userID := uuid.New()
	quiz := createQuizForTest(t, repo, userID, "Sleep", 3)

	for i := 0; i < 2; i++ {
		_, err := svc.SubmitAnswers(context.Background(), userID, quiz.ID, []string{"A", "B", "C"})
		require.NoError(t, err)
	}

	count, err := svc.CountResults(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}
