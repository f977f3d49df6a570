// SPDX-License-Identifier: Apache-2.0
//
// Copyright (C) 2024 Renesas Electronics Corporation.
// Copyright (C) 2024 EPAM Systems, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package validation provides text and image checks of mobile requests.
package validation

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/aoscloud/aos_common/aoserrors"
	log "github.com/sirupsen/logrus"
)

/***********************************************************************************************************************
 * Consts
 **********************************************************************************************************************/

// Image types.
const (
	ImageTypeStatic  = "STATIC"
	ImageTypeDynamic = "DYNAMIC"
)

/***********************************************************************************************************************
 * Vars
 **********************************************************************************************************************/

var (
	// ErrImageNotFound is returned when dynamic image file does not exist.
	ErrImageNotFound = errors.New("image not found")
	// ErrInvalidImage is returned when image has invalid value or type.
	ErrInvalidImage = errors.New("invalid image")
)

/***********************************************************************************************************************
 * Types
 **********************************************************************************************************************/

// Image image reference.
type Image struct {
	Value     string `json:"value"`
	ImageType string `json:"imageType"`
}

// ImageVerifier checks dynamic images in application storage.
type ImageVerifier struct {
	storageDir string
}

/***********************************************************************************************************************
 * Public
 **********************************************************************************************************************/

// CheckSyntax returns false if text contains tabs, new lines or their escaped forms, or consists of spaces only.
func CheckSyntax(text string, allowEmpty bool) bool {
	if strings.ContainsAny(text, "\t\n") || strings.Contains(text, `\t`) || strings.Contains(text, `\n`) {
		return false
	}

	if strings.Trim(text, " ") == "" {
		return allowEmpty && text == ""
	}

	return true
}

// NewImageVerifier creates image verifier. Dynamic images are looked up in <storageDir>/<appID>.
func NewImageVerifier(storageDir string) (verifier *ImageVerifier) {
	return &ImageVerifier{storageDir: storageDir}
}

// VerifyImage checks that image is valid and dynamic image file exists.
func (verifier *ImageVerifier) VerifyImage(appID string, image Image) (err error) {
	if !CheckSyntax(image.Value, false) {
		return aoserrors.Wrap(ErrInvalidImage)
	}

	switch image.ImageType {
	case ImageTypeStatic:
		return nil

	case ImageTypeDynamic:
		fileName := image.Value

		if !filepath.IsAbs(fileName) {
			fileName = filepath.Join(verifier.storageDir, appID, fileName)
		}

		if _, err = os.Stat(fileName); err != nil {
			log.WithField("file", fileName).Warnf("Image not found: %s", err)

			return aoserrors.Errorf("%w: %s", ErrImageNotFound, image.Value)
		}

		return nil

	default:
		return aoserrors.Errorf("%w: unknown type %s", ErrInvalidImage, image.ImageType)
	}
}
