// Copyright 2016, Joe Tsai. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

package compress

import "github.com/dsnet/xnbcompress/internal/errors"

type internalError = errors.Error
