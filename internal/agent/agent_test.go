package agent

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"go.uber.org/goleak"

	"github.com/bowerhall/parley/internal/alerts"
	"github.com/bowerhall/parley/internal/session"
	"github.com/bowerhall/parley/internal/skill"
	"github.com/bowerhall/parley/internal/timeout"
)

type rule struct {
	contains string
	skills   []string
}

// keywords returns the skills of the first rule whose keyword is in the
// message.
func keywords(rules ...rule) Classifier {
	return ClassifierFunc(func(ctx context.Context, message, userID string) ([]string, error) {
		for _, r := range rules {
			if strings.Contains(message, r.contains) {
				return r.skills, nil
			}
		}
		return nil, nil
	})
}

func echoSkill() skill.Skill {
	return skill.New("echo", func(t *skill.Turn, msg string) error {
		t.Say(msg)
		return nil
	})
}

// directAgeSkill suspends into a dedicated state for the answer.
func directAgeSkill() skill.Skill {
	return skill.New("age", func(t *skill.Turn, msg string) error {
		_, err := t.Ask("How old are you?", skill.DirectTo("got_age"))
		return err
	}).State("got_age", func(t *skill.Turn, msg string) error {
		return t.Finish("Ok")
	})
}

// specifyAgeSkill re-asks with Specify until it gets a number.
func specifyAgeSkill() skill.Skill {
	return skill.New("age", func(t *skill.Turn, msg string) error {
		answer, err := t.Ask("How old are you?")
		if err != nil {
			return err
		}

		for {
			if age, convErr := strconv.Atoi(answer); convErr == nil {
				return t.Finish(fmt.Sprintf("You are %d years old", age))
			}
			answer, err = t.Specify("Send a number pls")
			if err != nil {
				return err
			}
		}
	})
}

func weatherSkill() skill.Skill {
	return skill.New("weather", func(t *skill.Turn, msg string) error {
		return t.Finish("It is sunny")
	})
}

func newAgent(t *testing.T, classifier Classifier, skills []skill.Skill, opts ...Option) *Agent {
	t.Helper()

	a, err := New(classifier, skill.NewRegistry().MustRegister(skills...), opts...)
	if err != nil {
		t.Fatalf("failed to create agent: %v", err)
	}
	return a
}

func expectAnswers(t *testing.T, got []string, want ...string) {
	t.Helper()
	if diff := cmp.Diff(want, got, cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("answers mismatch (-want +got):\n%s", diff)
	}
}

func query(t *testing.T, c *Conversation, text string) []string {
	t.Helper()
	answers, err := c.Query(context.Background(), text)
	if err != nil {
		t.Fatalf("query %q failed: %v", text, err)
	}
	return answers
}

func loadSession(t *testing.T, a *Agent, userID string) *session.Session {
	t.Helper()
	sess, err := a.Store().Get(context.Background(), userID)
	if err != nil {
		t.Fatalf("failed to load session: %v", err)
	}
	return sess
}

func TestNewValidates(t *testing.T) {
	if _, err := New(nil, skill.NewRegistry()); !errors.Is(err, ErrNoClassifier) {
		t.Errorf("expected ErrNoClassifier, got %v", err)
	}
	if _, err := New(keywords(), nil); !errors.Is(err, ErrNoRegistry) {
		t.Errorf("expected ErrNoRegistry, got %v", err)
	}
}

func TestAgeSkillScenario(t *testing.T) {
	a := newAgent(t, keywords(rule{"age", []string{"age"}}), []skill.Skill{directAgeSkill()})
	c := a.Conversation("alice")

	expectAnswers(t, query(t, c, "What about age?"), "How old are you?")

	sess := loadSession(t, a, "alice")
	if len(sess.Pending) != 1 {
		t.Fatalf("expected 1 pending skill, got %d", len(sess.Pending))
	}
	if sess.Pending[0].SkillID != "age" || sess.Pending[0].ResumePoint != "got_age" {
		t.Errorf("unexpected pending entry: %+v", sess.Pending[0])
	}

	expectAnswers(t, query(t, c, "42"), "Ok")

	if sess := loadSession(t, a, "alice"); sess.Waiting() {
		t.Errorf("expected no pending skills, got %v", sess.SkillIDs())
	}
}

func TestEchoThenAgeComposition(t *testing.T) {
	a := newAgent(t,
		keywords(rule{"age", []string{"echo", "age"}}),
		[]skill.Skill{echoSkill(), specifyAgeSkill()},
	)
	c := a.Conversation("alice")

	expectAnswers(t, query(t, c, "Ask me about age"), "Ask me about age", "How old are you?")
	if ids := loadSession(t, a, "alice").SkillIDs(); !cmp.Equal(ids, []string{"age"}) {
		t.Errorf("expected only age pending, got %v", ids)
	}

	expectAnswers(t, query(t, c, "twenty four"), "Send a number pls")
	expectAnswers(t, query(t, c, "24"), "You are 24 years old")
}

func TestSameSkillTwice(t *testing.T) {
	a := newAgent(t, keywords(rule{"", []string{"echo", "echo"}}), []skill.Skill{echoSkill()})

	expectAnswers(t, query(t, a.Conversation("alice"), "hello"), "hello", "hello")
}

func TestFinishedSkillDoesNotBlockQueue(t *testing.T) {
	a := newAgent(t,
		keywords(rule{"both", []string{"weather", "echo"}}),
		[]skill.Skill{weatherSkill(), echoSkill()},
	)

	expectAnswers(t, query(t, a.Conversation("alice"), "both please"), "It is sunny", "both please")
}

func TestResumabilityMatchesSynchronousRun(t *testing.T) {
	intro := skill.New("intro", func(t *skill.Turn, msg string) error {
		name, err := t.Ask("What is your name?")
		if err != nil {
			return err
		}
		t.Say(fmt.Sprintf("Nice to meet you %s!", name))

		age, err := t.Ask(fmt.Sprintf("%s, how old are you?", name))
		if err != nil {
			return err
		}
		return t.Finish(fmt.Sprintf("%s is %s", name, age))
	})

	a := newAgent(t, keywords(rule{"intro", []string{"intro"}}), []skill.Skill{intro})
	c := a.Conversation("alice")

	var got []string
	for _, msg := range []string{"intro", "Bob", "30"} {
		got = append(got, query(t, c, msg)...)
	}

	want := []string{
		"What is your name?",
		"Nice to meet you Bob!",
		"Bob, how old are you?",
		"Bob is 30",
	}
	expectAnswers(t, got, want...)
}

func TestSayIsIdempotentAcrossResume(t *testing.T) {
	greet := skill.New("greet", func(t *skill.Turn, msg string) error {
		t.Say("Welcome")
		t.Say("Welcome")
		name, err := t.Ask("What is your name?")
		if err != nil {
			return err
		}
		t.Say("Welcome")
		return t.Finish("Hi " + name)
	})

	a := newAgent(t, keywords(rule{"hi", []string{"greet"}}), []skill.Skill{greet})
	c := a.Conversation("alice")

	expectAnswers(t, query(t, c, "hi"), "Welcome", "What is your name?")
	expectAnswers(t, query(t, c, "Bob"), "Hi Bob")
}

func TestSessionIsolation(t *testing.T) {
	a := newAgent(t, keywords(rule{"age", []string{"age"}}), []skill.Skill{directAgeSkill()})

	expectAnswers(t, query(t, a.Conversation("alice"), "What about age?"), "How old are you?")

	// bob has nothing pending, so "42" is classified and matches nothing
	expectAnswers(t, query(t, a.Conversation("bob"), "42"))
	if loadSession(t, a, "bob").Waiting() {
		t.Error("bob should have no pending skills")
	}

	expectAnswers(t, query(t, a.Conversation("bob"), "What about age?"), "How old are you?")
	expectAnswers(t, query(t, a.Conversation("alice"), "42"), "Ok")

	if !loadSession(t, a, "bob").Waiting() {
		t.Error("alice's answer consumed bob's pending skill")
	}
}

func TestReweighOnIrrelevance(t *testing.T) {
	a := newAgent(t,
		keywords(
			rule{"weather", []string{"weather"}},
			rule{"age", []string{"age"}},
		),
		[]skill.Skill{specifyAgeSkill(), weatherSkill()},
	)
	c := a.Conversation("alice")

	expectAnswers(t, query(t, c, "age"), "How old are you?")

	// nothing matches, the pending skill keeps its own answers
	expectAnswers(t, query(t, c, "twenty four"), "Send a number pls")
	if ids := loadSession(t, a, "alice").SkillIDs(); !cmp.Equal(ids, []string{"age"}) {
		t.Fatalf("expected age still pending, got %v", ids)
	}

	// a new classification replaces the pending skill
	expectAnswers(t, query(t, c, "what is the weather"), "It is sunny")
	if loadSession(t, a, "alice").Waiting() {
		t.Error("expected age skill to be dropped")
	}
}

func TestReweighLimit(t *testing.T) {
	a := newAgent(t,
		keywords(
			rule{"weather", []string{"weather"}},
			rule{"age", []string{"age"}},
		),
		[]skill.Skill{specifyAgeSkill(), weatherSkill()},
		WithReweighLimit(0),
	)
	c := a.Conversation("alice")

	query(t, c, "age")
	query(t, c, "twenty four")

	expectAnswers(t, query(t, c, "what is the weather"), "Send a number pls")
}

func TestAbortReroutesMessage(t *testing.T) {
	picky := skill.New("picky", func(t *skill.Turn, msg string) error {
		answer, err := t.Ask("Yes or no?")
		if err != nil {
			return err
		}
		if answer != "yes" && answer != "no" {
			return t.Abort("not a yes/no answer")
		}
		return t.Finish("Noted")
	})

	a := newAgent(t,
		keywords(
			rule{"weather", []string{"weather"}},
			rule{"confirm", []string{"picky"}},
		),
		[]skill.Skill{picky, weatherSkill()},
	)
	c := a.Conversation("alice")

	expectAnswers(t, query(t, c, "confirm"), "Yes or no?")
	expectAnswers(t, query(t, c, "weather?"), "It is sunny")

	// abort with nothing else to route to drops the message
	expectAnswers(t, query(t, c, "confirm"), "Yes or no?")
	expectAnswers(t, query(t, c, "maybe"))
	if loadSession(t, a, "alice").Waiting() {
		t.Error("aborted skill should be dequeued")
	}
}

func TestProcessActionBypassesPending(t *testing.T) {
	a := newAgent(t,
		keywords(
			rule{"/echo", []string{"echo"}},
			rule{"age", []string{"age"}},
		),
		[]skill.Skill{echoSkill(), directAgeSkill()},
	)
	ctx := context.Background()
	c := a.Conversation("alice")

	expectAnswers(t, query(t, c, "age"), "How old are you?")

	// a classified action replaces the pending skill
	answers, err := c.Action(ctx, "/echo hi")
	if err != nil {
		t.Fatalf("action failed: %v", err)
	}
	expectAnswers(t, answers, "/echo hi")
	if loadSession(t, a, "alice").Waiting() {
		t.Error("classified action should replace the pending queue")
	}

	expectAnswers(t, query(t, c, "age"), "How old are you?")

	// an action the classifier does not know falls through to the queue
	answers, err = c.Action(ctx, "42")
	if err != nil {
		t.Fatalf("action failed: %v", err)
	}
	expectAnswers(t, answers, "Ok")
}

func TestSharedValuesPersistAcrossSkills(t *testing.T) {
	remember := skill.New("remember", func(t *skill.Turn, msg string) error {
		name, err := t.Ask("What is your name?")
		if err != nil {
			return err
		}
		if err := t.Shared().Set("name", name); err != nil {
			return err
		}
		return t.Finish("Got it")
	})
	recall := skill.New("recall", func(t *skill.Turn, msg string) error {
		name := t.Shared().String("name")
		if name == "" {
			return t.Finish("I don't know you")
		}
		return t.Finish("You are " + name)
	})

	a := newAgent(t,
		keywords(rule{"remember", []string{"remember"}}, rule{"who", []string{"recall"}}),
		[]skill.Skill{remember, recall},
	)
	c := a.Conversation("alice")

	expectAnswers(t, query(t, c, "who am I"), "I don't know you")
	query(t, c, "remember me")
	query(t, c, "Bob")
	expectAnswers(t, query(t, c, "who am I"), "You are Bob")
	expectAnswers(t, query(t, a.Conversation("bob"), "who am I"), "I don't know you")
}

func TestSideEffectReplay(t *testing.T) {
	var mu sync.Mutex
	rolls := 0
	roll := func(context.Context) (int, error) {
		mu.Lock()
		defer mu.Unlock()
		rolls++
		return 30 + rolls, nil
	}

	number := skill.New("number", func(t *skill.Turn, msg string) error {
		expected, err := skill.Call(t, "rand", roll)
		if err != nil {
			return err
		}

		guess, err := t.Ask("Whats number?")
		if err != nil {
			return err
		}
		if guess == strconv.Itoa(expected) {
			return t.Finish("ok")
		}
		return t.Finish("wrong")
	})

	a := newAgent(t, keywords(rule{"", []string{"number"}}), []skill.Skill{number})
	c := a.Conversation("alice")

	expectAnswers(t, query(t, c, "start"), "Whats number?")
	expectAnswers(t, query(t, c, "31"), "ok")

	// a new activation records a new value
	expectAnswers(t, query(t, c, "start"), "Whats number?")
	expectAnswers(t, query(t, c, "31"), "wrong")

	if rolls != 2 {
		t.Errorf("expected 2 executed rolls, got %d", rolls)
	}
}

func TestFatalSkillErrorLeavesSessionUnchanged(t *testing.T) {
	boom := errors.New("boom")
	fragile := skill.New("fragile", func(t *skill.Turn, msg string) error {
		answer, err := t.Ask("Say something")
		if err != nil {
			return err
		}
		if answer == "crash" {
			return boom
		}
		return t.Finish("fine")
	})

	var sent []string
	alerter := alerts.New(func(msg string) { sent = append(sent, msg) }, time.Minute)

	a := newAgent(t, keywords(rule{"go", []string{"fragile"}}), []skill.Skill{fragile}, WithAlerter(alerter))
	c := a.Conversation("alice")

	query(t, c, "go")
	before := loadSession(t, a, "alice")

	_, err := c.Query(context.Background(), "crash")
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	var skillErr *skill.Error
	if !errors.As(err, &skillErr) || skillErr.Skill != "fragile" {
		t.Errorf("expected *skill.Error for fragile, got %v", err)
	}

	if diff := cmp.Diff(before, loadSession(t, a, "alice")); diff != "" {
		t.Errorf("session changed after failed turn (-before +after):\n%s", diff)
	}
	if len(sent) != 1 || !strings.Contains(sent[0], "fragile") {
		t.Errorf("expected one alert for fragile, got %v", sent)
	}

	// the user can retry cleanly
	expectAnswers(t, query(t, c, "ok"), "fine")
}

func TestUnknownSkillFromClassifier(t *testing.T) {
	a := newAgent(t, keywords(rule{"", []string{"missing"}}), []skill.Skill{echoSkill()})

	_, err := a.ProcessTurn(context.Background(), "alice", "hello")
	if !errors.Is(err, skill.ErrUnknownSkill) {
		t.Errorf("expected ErrUnknownSkill, got %v", err)
	}
}

func TestClassifierError(t *testing.T) {
	failing := ClassifierFunc(func(ctx context.Context, message, userID string) ([]string, error) {
		return nil, errors.New("classifier down")
	})
	a := newAgent(t, failing, []skill.Skill{echoSkill()})

	if _, err := a.ProcessTurn(context.Background(), "alice", "hello"); err == nil {
		t.Error("expected classifier error")
	}
}

type fakeBroker struct {
	mu        sync.Mutex
	scheduled []time.Duration
}

func (b *fakeBroker) Schedule(ctx context.Context, userID string, d time.Duration) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.scheduled = append(b.scheduled, d)
	return fmt.Sprintf("tok-%d", len(b.scheduled)), nil
}

type cancelBroker struct {
	fakeBroker
	cancelled []string
}

func (b *cancelBroker) Cancel(ctx context.Context, userID string) error {
	b.cancelled = append(b.cancelled, userID)
	return nil
}

func meetingSkill(wait time.Duration) skill.Skill {
	return skill.New("meeting", func(t *skill.Turn, msg string) error {
		name, err := t.Ask("What is your name?", skill.Within(wait))
		if errors.Is(err, skill.ErrTimedOut) {
			name, err = t.Ask("I repeat the question: what is your name?")
		}
		if err != nil {
			return err
		}
		return t.Finish(fmt.Sprintf("Nice to meet you %s!", name))
	})
}

func TestTimeoutFlow(t *testing.T) {
	broker := &fakeBroker{}
	a := newAgent(t, keywords(rule{"hello", []string{"meeting"}}), []skill.Skill{meetingSkill(10 * time.Second)}, WithBroker(broker))
	ctx := context.Background()
	c := a.Conversation("alice")

	expectAnswers(t, query(t, c, "hello"), "What is your name?")

	sess := loadSession(t, a, "alice")
	if sess.TimeoutToken != "tok-1" {
		t.Fatalf("expected token tok-1, got %q", sess.TimeoutToken)
	}
	if len(broker.scheduled) != 1 || broker.scheduled[0] != 10*time.Second {
		t.Errorf("unexpected schedule calls: %v", broker.scheduled)
	}

	// stale token: no answers, no mutation
	answers, err := a.ProcessTimeout(ctx, "alice", "tok-stale")
	if err != nil {
		t.Fatalf("stale timeout failed: %v", err)
	}
	expectAnswers(t, answers)
	if diff := cmp.Diff(sess, loadSession(t, a, "alice")); diff != "" {
		t.Errorf("stale timeout changed session:\n%s", diff)
	}

	answers, err = a.ProcessTimeout(ctx, "alice", "tok-1")
	if err != nil {
		t.Fatalf("timeout failed: %v", err)
	}
	expectAnswers(t, answers, "I repeat the question: what is your name?")
	if tok := loadSession(t, a, "alice").TimeoutToken; tok != "" {
		t.Errorf("expected token cleared, got %q", tok)
	}

	// replaying the same wake-up is a no-op
	answers, _ = a.ProcessTimeout(ctx, "alice", "tok-1")
	expectAnswers(t, answers)

	expectAnswers(t, query(t, c, "Bob"), "Nice to meet you Bob!")
}

func TestRealMessageCancelsTimeout(t *testing.T) {
	broker := &fakeBroker{}
	a := newAgent(t, keywords(rule{"hello", []string{"meeting"}}), []skill.Skill{meetingSkill(time.Minute)}, WithBroker(broker))
	c := a.Conversation("alice")

	query(t, c, "hello")
	expectAnswers(t, query(t, c, "Bob"), "Nice to meet you Bob!")

	answers, err := a.ProcessTimeout(context.Background(), "alice", "tok-1")
	if err != nil {
		t.Fatalf("timeout failed: %v", err)
	}
	expectAnswers(t, answers)
}

func TestWakeThroughCronBroker(t *testing.T) {
	broker := timeout.NewCronBroker(time.UTC)
	defer broker.Stop()

	notified := make(chan []string, 1)
	a := newAgent(t,
		keywords(rule{"hello", []string{"meeting"}}),
		[]skill.Skill{meetingSkill(20 * time.Millisecond)},
		WithBroker(broker),
		WithNotify(func(userID string, answers []string) {
			if userID == "alice" {
				notified <- answers
			}
		}),
	)
	broker.OnWake(a.Wake)

	expectAnswers(t, query(t, a.Conversation("alice"), "hello"), "What is your name?")

	select {
	case answers := <-notified:
		expectAnswers(t, answers, "I repeat the question: what is your name?")
	case <-time.After(3 * time.Second):
		t.Fatal("timeout wake-up never delivered")
	}
}

func TestSameUserTurnsAreSerialised(t *testing.T) {
	defer goleak.VerifyNone(t)

	counter := skill.New("count", func(t *skill.Turn, msg string) error {
		var n int
		if _, err := t.Shared().Get("n", &n); err != nil {
			return err
		}
		n++
		if err := t.Shared().Set("n", n); err != nil {
			return err
		}
		return t.Finish(strconv.Itoa(n))
	})

	a := newAgent(t, keywords(rule{"", []string{"count"}}), []skill.Skill{counter})

	const turns = 50
	var wg sync.WaitGroup
	for i := 0; i < turns; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			user := "alice"
			if i%2 == 1 {
				user = "bob"
			}
			if _, err := a.ProcessTurn(context.Background(), user, "count"); err != nil {
				t.Errorf("turn failed: %v", err)
			}
		}(i)
	}
	wg.Wait()

	for _, user := range []string{"alice", "bob"} {
		var n int
		if _, err := loadSession(t, a, user).Shared.Get("n", &n); err != nil {
			t.Fatalf("failed to read counter: %v", err)
		}
		if n != turns/2 {
			t.Errorf("%s: expected %d turns counted, got %d", user, turns/2, n)
		}
	}
}

func TestReset(t *testing.T) {
	broker := &fakeBroker{}
	a := newAgent(t,
		keywords(rule{"hello", []string{"meeting"}}, rule{"age", []string{"age"}}),
		[]skill.Skill{meetingSkill(time.Minute), directAgeSkill()},
		WithBroker(broker),
	)
	ctx := context.Background()

	query(t, a.Conversation("alice"), "hello")
	if err := a.Reset(ctx, "alice"); err != nil {
		t.Fatalf("reset failed: %v", err)
	}

	sess := loadSession(t, a, "alice")
	if sess.Waiting() || sess.TimeoutToken != "" {
		t.Errorf("expected cleared session, got pending %v token %q", sess.SkillIDs(), sess.TimeoutToken)
	}

	// the old wake-up is now stale and the next message is classified
	answers, _ := a.ProcessTimeout(ctx, "alice", "tok-1")
	expectAnswers(t, answers)
	expectAnswers(t, query(t, a.Conversation("alice"), "age"), "How old are you?")

	if err := a.Reset(ctx, "nobody"); err != nil {
		t.Errorf("reset of unknown user failed: %v", err)
	}
}

type turnRecord struct {
	UserID  string
	Message string
	Answers []string
}

type fakeTranscript struct {
	turns []turnRecord
	err   error
}

func (f *fakeTranscript) AddTurn(ctx context.Context, userID, message string, answers []string) error {
	f.turns = append(f.turns, turnRecord{userID, message, answers})
	return f.err
}

func TestTranscriptRecordsTurns(t *testing.T) {
	transcript := &fakeTranscript{}
	a := newAgent(t,
		keywords(rule{"hello", []string{"meeting"}}),
		[]skill.Skill{meetingSkill(time.Minute)},
		WithBroker(&fakeBroker{}),
		WithTranscript(transcript),
	)
	ctx := context.Background()

	query(t, a.Conversation("alice"), "hello")
	a.ProcessTimeout(ctx, "alice", "tok-stale")
	a.ProcessTimeout(ctx, "alice", "tok-1")

	want := []turnRecord{
		{"alice", "hello", []string{"What is your name?"}},
		{"alice", "", []string{"I repeat the question: what is your name?"}},
	}
	if diff := cmp.Diff(want, transcript.turns); diff != "" {
		t.Errorf("transcript mismatch (-want +got):\n%s", diff)
	}
}

func TestTranscriptFailureDoesNotFailTurn(t *testing.T) {
	transcript := &fakeTranscript{err: errors.New("disk full")}
	a := newAgent(t, keywords(rule{"echo", []string{"echo"}}), []skill.Skill{echoSkill()}, WithTranscript(transcript))

	expectAnswers(t, query(t, a.Conversation("alice"), "echo me"), "echo me")
}

func TestResetCancelsBrokerWakeups(t *testing.T) {
	broker := &cancelBroker{}
	a := newAgent(t, keywords(rule{"hello", []string{"meeting"}}), []skill.Skill{meetingSkill(time.Minute)}, WithBroker(broker))
	ctx := context.Background()

	query(t, a.Conversation("alice"), "hello")
	if err := a.Reset(ctx, "alice"); err != nil {
		t.Fatalf("reset failed: %v", err)
	}

	if diff := cmp.Diff([]string{"alice"}, broker.cancelled); diff != "" {
		t.Errorf("cancel calls mismatch (-want +got):\n%s", diff)
	}
}

// savingStore keeps a copy of the last session handed to Set.
type savingStore struct {
	session.Store
	saved *session.Session
}

func (s *savingStore) Set(ctx context.Context, userID string, sess *session.Session) error {
	s.saved = sess.Clone()
	return s.Store.Set(ctx, userID, sess)
}

func TestSavedSessionLoadsBackEqual(t *testing.T) {
	store := &savingStore{Store: session.NewMemoryStore()}
	a := newAgent(t,
		keywords(rule{"hello", []string{"meeting"}}, rule{"age", []string{"age"}}),
		[]skill.Skill{meetingSkill(time.Minute), specifyAgeSkill()},
		WithStore(store),
		WithBroker(&fakeBroker{}),
	)
	c := a.Conversation("alice")

	for _, msg := range []string{"hello", "Bob", "age", "old", "42"} {
		query(t, c, msg)

		loaded := loadSession(t, a, "alice")
		if diff := cmp.Diff(store.saved, loaded); diff != "" {
			t.Errorf("after %q stored session does not load back (-saved +loaded):\n%s", msg, diff)
		}
	}
}
