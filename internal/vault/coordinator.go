package vault

import (
	"context"
	"fmt"

	"github.com/hearthshare/vault-service/internal/audit"
	"github.com/hearthshare/vault-service/internal/domain"
	"github.com/hearthshare/vault-service/internal/resolver"
	"github.com/hearthshare/vault-service/pkg/log"
)

// Broadcaster delivers coordinator output to every subscriber of a
// vault. Broadcasts happen in the order commands were applied.
type Broadcaster interface {
	BroadcastSnapshot(vaultID string, snap *domain.Snapshot)
	BroadcastNotification(vaultID, message string)
	BroadcastError(vaultID, message string)
}

type command interface {
	isCommand()
}

type connectCmd struct{ userID string }
type disconnectCmd struct{ userID string }

type updateProposalCmd struct {
	userID     string
	categoryID string
	amount     float64
}

type resolveCmd struct {
	userID     string
	categoryID string
}

type submitVoteCmd struct {
	userID string
	value  domain.VoteValue
}

type sendMessageCmd struct {
	userID string
	text   string
}

// resolutionDoneCmd re-enters the queue when an advisory call settles,
// so resolution results are applied by the coordinator goroutine and
// never from the background callback.
type resolutionDoneCmd struct {
	userID     string
	categoryID string
	result     map[string]float64
	err        error
}

func (connectCmd) isCommand()        {}
func (disconnectCmd) isCommand()     {}
func (updateProposalCmd) isCommand() {}
func (resolveCmd) isCommand()        {}
func (submitVoteCmd) isCommand()     {}
func (sendMessageCmd) isCommand()    {}
func (resolutionDoneCmd) isCommand() {}

// Coordinator serializes every mutation of one vault. It is the sole
// writer of its State: commands enter a single FIFO queue and are
// applied one at a time by the Run goroutine. A resolution in flight
// keeps its category locked against proposal writes while unrelated
// commands continue to flow.
type Coordinator struct {
	state     *State
	resolver  *resolver.Resolver
	out       Broadcaster
	commands  chan command
	resolving map[string]struct{}
	done      chan struct{}
}

func NewCoordinator(vaultID string, seed Seed, res *resolver.Resolver, out Broadcaster, buffer int) *Coordinator {
	if buffer <= 0 {
		buffer = 64
	}
	return &Coordinator{
		state:     NewState(vaultID, seed),
		resolver:  res,
		out:       out,
		commands:  make(chan command, buffer),
		resolving: make(map[string]struct{}),
		done:      make(chan struct{}),
	}
}

// Run processes commands until ctx is cancelled. It must be called
// exactly once, on its own goroutine.
func (c *Coordinator) Run(ctx context.Context) {
	defer close(c.done)
	for {
		select {
		case <-ctx.Done():
			return
		case cmd := <-c.commands:
			c.apply(ctx, cmd)
		}
	}
}

// Connect adds the user to the presence set and broadcasts.
func (c *Coordinator) Connect(userID string) {
	c.enqueue(connectCmd{userID: userID})
}

// Disconnect removes the user from the presence set and broadcasts.
func (c *Coordinator) Disconnect(userID string) {
	c.enqueue(disconnectCmd{userID: userID})
}

// UpdateProposal overwrites the user's proposal for a category.
func (c *Coordinator) UpdateProposal(userID, categoryID string, amount float64) {
	c.enqueue(updateProposalCmd{userID: userID, categoryID: categoryID, amount: amount})
}

// ResolveConflict asks the resolver to normalize a category's proposals.
func (c *Coordinator) ResolveConflict(userID, categoryID string) {
	c.enqueue(resolveCmd{userID: userID, categoryID: categoryID})
}

// SubmitVote records the user's vote on the open decision.
func (c *Coordinator) SubmitVote(userID string, value domain.VoteValue) {
	c.enqueue(submitVoteCmd{userID: userID, value: value})
}

// SendMessage appends a chat message.
func (c *Coordinator) SendMessage(userID, text string) {
	c.enqueue(sendMessageCmd{userID: userID, text: text})
}

func (c *Coordinator) enqueue(cmd command) {
	select {
	case c.commands <- cmd:
	case <-c.done:
		l := log.L()
		l.Warn().Str(log.FieldVaultID, c.state.VaultID()).Msg("command dropped, coordinator stopped")
	}
}

func (c *Coordinator) apply(ctx context.Context, cmd command) {
	switch cmd := cmd.(type) {
	case connectCmd:
		c.applyConnect(ctx, cmd)
	case disconnectCmd:
		c.applyDisconnect(ctx, cmd)
	case updateProposalCmd:
		c.applyUpdateProposal(ctx, cmd)
	case resolveCmd:
		c.applyResolve(ctx, cmd)
	case submitVoteCmd:
		c.applySubmitVote(ctx, cmd)
	case sendMessageCmd:
		c.applySendMessage(ctx, cmd)
	case resolutionDoneCmd:
		c.applyResolutionDone(ctx, cmd)
	}
}

func (c *Coordinator) applyConnect(ctx context.Context, cmd connectCmd) {
	if _, ok := c.state.User(cmd.userID); !ok {
		c.dropCommand(cmd.userID, "connect from unknown user")
		return
	}
	if c.state.Connect(cmd.userID) {
		c.state.Audit(cmd.userID, "connected.")
		audit.Log(ctx, audit.ActionConnect, c.state.VaultID(), cmd.userID, "user connected")
	}
	c.broadcastState()
}

func (c *Coordinator) applyDisconnect(ctx context.Context, cmd disconnectCmd) {
	if !c.state.Disconnect(cmd.userID) {
		return
	}
	c.state.Audit(cmd.userID, "disconnected.")
	audit.Log(ctx, audit.ActionDisconnect, c.state.VaultID(), cmd.userID, "user disconnected")
	c.broadcastState()
}

func (c *Coordinator) applyUpdateProposal(ctx context.Context, cmd updateProposalCmd) {
	cat, ok := c.state.Category(cmd.categoryID)
	if !ok {
		c.dropCommand(cmd.userID, "proposal for unknown category")
		return
	}
	if cmd.amount < 0 {
		c.dropCommand(cmd.userID, "negative proposal amount")
		return
	}
	if _, locked := c.resolving[cmd.categoryID]; locked {
		c.out.BroadcastNotification(c.state.VaultID(),
			fmt.Sprintf("%s budget is being resolved, try again in a moment.", cat.Name))
		return
	}
	if err := c.state.SetProposal(cmd.categoryID, cmd.userID, cmd.amount); err != nil {
		c.dropCommand(cmd.userID, err.Error())
		return
	}
	c.state.Audit(cmd.userID, fmt.Sprintf("proposed $%v for %s.", cmd.amount, cat.Name))
	audit.LogWithDetail(ctx, audit.ActionUpdateProposal, c.state.VaultID(), cmd.userID, cmd.categoryID, "proposal updated")
	c.broadcastState()
}

func (c *Coordinator) applyResolve(ctx context.Context, cmd resolveCmd) {
	cat, ok := c.state.Category(cmd.categoryID)
	if !ok {
		c.dropCommand(cmd.userID, "resolution for unknown category")
		return
	}
	if _, locked := c.resolving[cmd.categoryID]; locked {
		c.out.BroadcastNotification(c.state.VaultID(),
			fmt.Sprintf("%s budget is already being resolved.", cat.Name))
		return
	}

	requester := "Someone"
	if u, ok := c.state.User(cmd.userID); ok {
		requester = u.Name
	}
	c.out.BroadcastNotification(c.state.VaultID(),
		fmt.Sprintf("%s asked the advisor to resolve the budget. Thinking...", requester))

	proposals, err := c.state.ProposalsByName(cmd.categoryID)
	if err != nil {
		c.dropCommand(cmd.userID, err.Error())
		return
	}

	// The category stays locked until the resolution settles.
	c.resolving[cmd.categoryID] = struct{}{}

	target := cat.Allocated
	go func() {
		result, err := c.resolver.Resolve(ctx, target, proposals)
		select {
		case c.commands <- resolutionDoneCmd{userID: cmd.userID, categoryID: cmd.categoryID, result: result, err: err}:
		case <-ctx.Done():
		}
	}()
}

func (c *Coordinator) applyResolutionDone(ctx context.Context, cmd resolutionDoneCmd) {
	delete(c.resolving, cmd.categoryID)

	cat, ok := c.state.Category(cmd.categoryID)
	if !ok {
		return
	}

	if cmd.err != nil {
		l := log.Ctx(ctx)
		l.Error().Err(cmd.err).
			Str(log.FieldVaultID, c.state.VaultID()).
			Str(log.FieldCategoryID, cmd.categoryID).
			Msg("resolution failed")
		c.out.BroadcastError(c.state.VaultID(), "Budget resolution failed. Please try again.")
		return
	}

	if err := c.state.ApplyResolution(cmd.categoryID, cmd.result); err != nil {
		c.out.BroadcastError(c.state.VaultID(), "Budget resolution failed. Please try again.")
		return
	}
	c.state.Audit(cmd.userID, fmt.Sprintf("used the advisor to resolve %s budget.", cat.Name))
	audit.LogWithDetail(ctx, audit.ActionResolve, c.state.VaultID(), cmd.userID, cmd.categoryID, "resolution applied")
	c.broadcastState()
	c.out.BroadcastNotification(c.state.VaultID(), "A new budget split has been suggested!")
}

func (c *Coordinator) applySubmitVote(ctx context.Context, cmd submitVoteCmd) {
	if !c.state.CastVote(cmd.userID, cmd.value) {
		// Too late or already voted: modelled as a graceful no-op,
		// with no audit entry and no broadcast.
		l := log.Ctx(ctx)
		l.Debug().
			Str(log.FieldVaultID, c.state.VaultID()).
			Str(log.FieldUserID, cmd.userID).
			Msg("vote rejected")
		return
	}
	vote := c.state.vote.Vote()
	c.state.Audit(cmd.userID, fmt.Sprintf("voted %q on: %q", string(cmd.value), vote.Question))
	audit.Log(ctx, audit.ActionVote, c.state.VaultID(), cmd.userID, "vote cast")
	c.broadcastState()
}

func (c *Coordinator) applySendMessage(ctx context.Context, cmd sendMessageCmd) {
	if cmd.text == "" {
		c.dropCommand(cmd.userID, "empty chat message")
		return
	}
	if _, err := c.state.AppendChat(cmd.userID, cmd.text); err != nil {
		c.dropCommand(cmd.userID, err.Error())
		return
	}
	audit.Log(ctx, audit.ActionChat, c.state.VaultID(), cmd.userID, "chat message")
	c.broadcastState()
}

func (c *Coordinator) broadcastState() {
	c.out.BroadcastSnapshot(c.state.VaultID(), c.state.Snapshot())
}

func (c *Coordinator) dropCommand(userID, reason string) {
	l := log.L()
	l.Debug().
		Str(log.FieldVaultID, c.state.VaultID()).
		Str(log.FieldUserID, userID).
		Str("reason", reason).
		Msg("command dropped")
}
