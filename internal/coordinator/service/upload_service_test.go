package service

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/chunkvault/chunkvault/internal/coordinator/adapter/outbound/access"
	"github.com/chunkvault/chunkvault/internal/coordinator/config"
	"github.com/chunkvault/chunkvault/internal/coordinator/domain"
	"github.com/chunkvault/chunkvault/internal/coordinator/port"
	"github.com/chunkvault/chunkvault/internal/coordinator/registry"
	"github.com/chunkvault/chunkvault/internal/coordinator/service/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestStore_MetadataFailureReleasesBlobs(t *testing.T) {
	ctrl := gomock.NewController(t)

	meta := mocks.NewMockMetadataStore(ctrl)
	blobs := mocks.NewMockBlobStore(ctrl)
	idGen := mocks.NewMockIDGenerator(ctrl)

	meta.EXPECT().ListNodes(gomock.Any()).Return(nil, nil)
	meta.EXPECT().UpsertNode(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()
	idGen.EXPECT().Next().Return(int64(42), nil)

	// All placements land, then metadata registration fails; every
	// written blob must be deleted again.
	blobs.EXPECT().Put(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil).Times(4)
	blobs.EXPECT().Delete(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil).Times(4)
	meta.EXPECT().
		CreateFile(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(errors.New("disk full"))

	cfg := config.DefaultConfig()
	cfg.Engine.DefaultChunkSize = 256
	cfg.Engine.MinActiveNodes = 2

	reg, err := registry.New(context.Background(), meta)
	require.NoError(t, err)
	require.NoError(t, reg.Add(context.Background(), domain.Node{ID: "node-a", Host: "h", Port: 1}))
	require.NoError(t, reg.Add(context.Background(), domain.Node{ID: "node-b", Host: "h", Port: 2}))

	svc := NewCoreService(cfg, meta, blobs, access.NopTracker{}, reg, idGen)

	_, err = svc.Store(context.Background(), port.StoreRequest{
		Name: "doomed.bin", Size: 512, ChunkSize: 256, ReplicationFactor: 2,
	}, bytes.NewReader(make([]byte, 512)))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
}

func TestStore_IDGeneratorFailureAborts(t *testing.T) {
	ctrl := gomock.NewController(t)

	meta := mocks.NewMockMetadataStore(ctrl)
	blobs := mocks.NewMockBlobStore(ctrl)
	idGen := mocks.NewMockIDGenerator(ctrl)

	meta.EXPECT().ListNodes(gomock.Any()).Return(nil, nil)
	meta.EXPECT().UpsertNode(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()
	idGen.EXPECT().Next().Return(int64(0), errors.New("clock moved back"))

	cfg := config.DefaultConfig()
	cfg.Engine.MinActiveNodes = 2

	reg, err := registry.New(context.Background(), meta)
	require.NoError(t, err)
	require.NoError(t, reg.Add(context.Background(), domain.Node{ID: "node-a", Host: "h", Port: 1}))
	require.NoError(t, reg.Add(context.Background(), domain.Node{ID: "node-b", Host: "h", Port: 2}))

	svc := NewCoreService(cfg, meta, blobs, access.NopTracker{}, reg, idGen)

	// No blob write and no metadata write may happen.
	_, err = svc.Store(context.Background(), port.StoreRequest{
		Name: "never.bin", Size: 100,
	}, bytes.NewReader(make([]byte, 100)))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to allocate file ID")
}
