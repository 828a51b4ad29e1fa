// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package arch_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/archbuild/arch"
	"github.com/born-ml/archbuild/backend/cpu"
	"github.com/born-ml/archbuild/nn"
	"github.com/born-ml/archbuild/tensor"
)

func TestPublicAPI_BuildAndRun(t *testing.T) {
	backend := cpu.New()
	b := arch.New(backend, arch.WithSeed(1))

	model, err := b.Build(arch.Seq(
		arch.Layer("Linear", map[string]any{"in_features": 4, "out_features": 4}),
		arch.Residual(arch.Layer("ReLU", nil)),
	))
	require.NoError(t, err)
	assert.Equal(t, 20, nn.NumParameters(model))

	input := tensor.Ones(tensor.Shape{3, 4}, backend)
	out, err := arch.Forward(model, input)
	require.NoError(t, err)
	assert.Equal(t, tensor.Shape{3, 4}, out.Shape())
}

func TestPublicAPI_Errors(t *testing.T) {
	b := arch.New(cpu.New())

	_, err := b.Build(arch.Layer("Nope", nil))
	assert.ErrorIs(t, err, arch.ErrUnknownLayerType)

	_, err = b.Build(arch.ResBlockSpec{Args: map[string]arch.Description{}})
	var ce *arch.ConstructionError
	require.ErrorAs(t, err, &ce)
	assert.ErrorIs(t, err, nn.ErrMissingNested)
}
