package nakama

import (
	"context"
	"database/sql"
	"sort"
	"strconv"
	"sync"

	"github.com/heroiclabs/nakama-common/api"
	"github.com/heroiclabs/nakama-common/runtime"
)

// noopLogger implements runtime.Logger for tests that only need to satisfy the interface.
type noopLogger struct{}

func (noopLogger) Debug(string, ...interface{}) {}
func (noopLogger) Info(string, ...interface{})  {}
func (noopLogger) Warn(string, ...interface{})  {}
func (noopLogger) Error(string, ...interface{}) {}
func (noopLogger) WithField(string, interface{}) runtime.Logger {
	return noopLogger{}
}
func (noopLogger) WithFields(map[string]interface{}) runtime.Logger {
	return noopLogger{}
}
func (noopLogger) Fields() map[string]interface{} {
	return nil
}

type storageKey struct {
	collection, key, userID string
}

type sentNotification struct {
	userID  string
	subject string
	content map[string]interface{}
	code    int
}

// fakeNakama keeps storage objects in memory and applies MultiUpdate writes
// all-or-nothing with Nakama's version rules.
type fakeNakama struct {
	runtime.NakamaModule

	mu            sync.Mutex
	objects       map[storageKey]*api.StorageObject
	nextVersion   int
	notifications []sentNotification
	profiles      map[string]string
	notifyErr     error
	updateErr     error
	pageSize      int
}

func newFakeNakama() *fakeNakama {
	return &fakeNakama{
		objects:  make(map[storageKey]*api.StorageObject),
		profiles: make(map[string]string),
	}
}

func (f *fakeNakama) StorageRead(ctx context.Context, reads []*runtime.StorageRead) ([]*api.StorageObject, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*api.StorageObject
	for _, r := range reads {
		if obj, ok := f.objects[storageKey{r.Collection, r.Key, r.UserID}]; ok {
			copied := *obj
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (f *fakeNakama) StorageList(ctx context.Context, callerID, userID, collection string, limit int, cursor string) ([]*api.StorageObject, string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var all []*api.StorageObject
	for k, obj := range f.objects {
		if k.collection == collection && k.userID == userID {
			copied := *obj
			all = append(all, &copied)
		}
	}
	// Reverse order so callers cannot rely on list order.
	sort.Slice(all, func(i, j int) bool { return all[i].Key > all[j].Key })

	if f.pageSize > 0 && f.pageSize < limit {
		limit = f.pageSize
	}
	offset := 0
	if cursor != "" {
		offset, _ = strconv.Atoi(cursor)
	}
	end := offset + limit
	if end >= len(all) {
		return all[offset:], "", nil
	}
	return all[offset:end], strconv.Itoa(end), nil
}

func (f *fakeNakama) MultiUpdate(ctx context.Context, accountUpdates []*runtime.AccountUpdate, storageWrites []*runtime.StorageWrite, storageDeletes []*runtime.StorageDelete, walletUpdates []*runtime.WalletUpdate, updateLedger bool) ([]*api.StorageObjectAck, []*runtime.WalletUpdateResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updateErr != nil {
		return nil, nil, f.updateErr
	}
	for _, w := range storageWrites {
		existing, ok := f.objects[storageKey{w.Collection, w.Key, w.UserID}]
		switch {
		case w.Version == "*" && ok:
			return nil, nil, runtime.ErrStorageRejectedVersion
		case w.Version != "" && w.Version != "*" && (!ok || existing.Version != w.Version):
			return nil, nil, runtime.ErrStorageRejectedVersion
		}
	}
	acks := make([]*api.StorageObjectAck, 0, len(storageWrites))
	for _, w := range storageWrites {
		f.nextVersion++
		version := "v" + strconv.Itoa(f.nextVersion)
		f.objects[storageKey{w.Collection, w.Key, w.UserID}] = &api.StorageObject{
			Collection:      w.Collection,
			Key:             w.Key,
			UserId:          w.UserID,
			Value:           w.Value,
			Version:         version,
			PermissionRead:  int32(w.PermissionRead),
			PermissionWrite: int32(w.PermissionWrite),
		}
		acks = append(acks, &api.StorageObjectAck{Collection: w.Collection, Key: w.Key, Version: version, UserId: w.UserID})
	}
	return acks, nil, nil
}

func (f *fakeNakama) NotificationSend(ctx context.Context, userID, subject string, content map[string]interface{}, code int, sender string, persistent bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.notifications = append(f.notifications, sentNotification{userID: userID, subject: subject, content: content, code: code})
	return f.notifyErr
}

func (f *fakeNakama) AccountUpdateId(ctx context.Context, userID, username string, metadata map[string]interface{}, displayName, timezone, location, langTag, avatarUrl string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.profiles[userID] = displayName
	return nil
}

func (f *fakeNakama) object(collection, key, userID string) (*api.StorageObject, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	obj, ok := f.objects[storageKey{collection, key, userID}]
	return obj, ok
}

type rpcHandler = func(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error)

type authHook = func(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, out *api.Session, in *api.AuthenticateDeviceRequest) error

// fakeInitializer records registrations.
type fakeInitializer struct {
	runtime.Initializer
	rpcs      map[string]rpcHandler
	afterAuth authHook
}

func (f *fakeInitializer) RegisterRpc(id string, fn func(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error)) error {
	if f.rpcs == nil {
		f.rpcs = make(map[string]rpcHandler)
	}
	f.rpcs[id] = fn
	return nil
}

func (f *fakeInitializer) RegisterAfterAuthenticateDevice(fn func(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, out *api.Session, in *api.AuthenticateDeviceRequest) error) error {
	f.afterAuth = fn
	return nil
}

func userCtx(userID string) context.Context {
	return context.WithValue(context.Background(), runtime.RUNTIME_CTX_USER_ID, userID)
}
