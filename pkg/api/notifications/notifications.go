// Zaparoo Projector
// Copyright (c) 2026 The Zaparoo Project Contributors.
// SPDX-License-Identifier: GPL-3.0-or-later
//
// This file is part of Zaparoo Projector.
//
// Zaparoo Projector is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// Zaparoo Projector is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with Zaparoo Projector.  If not, see <http://www.gnu.org/licenses/>.

package notifications

import (
	"encoding/json"

	"github.com/ZaparooProject/zaparoo-projector/pkg/api/models"
	"github.com/rs/zerolog/log"
)

// sendNotification marshals payload and sends it without blocking. A full
// channel drops the notification rather than stalling the dispatch queue.
func sendNotification(ns chan<- models.Notification, method string, payload any) {
	var params json.RawMessage
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			log.Error().Err(err).Str("method", method).Msg("error marshalling notification params")
			return
		}
		params = data
	}

	select {
	case ns <- models.Notification{Method: method, Params: params}:
	default:
		log.Warn().Str("method", method).Msg("notification channel full, dropping notification")
	}
}

func DeviceOnline(ns chan<- models.Notification, online bool, status string) {
	sendNotification(ns, models.NotificationDeviceOnline, models.OnlineParams{
		Online: online,
		Status: status,
	})
}

func DeviceCapabilities(ns chan<- models.Notification, payload models.CapabilitiesParams) {
	sendNotification(ns, models.NotificationDeviceCapabilities, payload)
}

func PowerOn(ns chan<- models.Notification, on bool) {
	sendNotification(ns, models.NotificationPowerOn, models.BoolParams{Value: on})
}

func PowerWarming(ns chan<- models.Notification, warming bool) {
	sendNotification(ns, models.NotificationPowerWarming, models.BoolParams{Value: warming})
}

func PowerCooling(ns chan<- models.Notification, cooling bool) {
	sendNotification(ns, models.NotificationPowerCooling, models.BoolParams{Value: cooling})
}

func PowerState(ns chan<- models.Notification, state string) {
	sendNotification(ns, models.NotificationPowerState, models.PowerStateParams{State: state})
}

func InputChanged(ns chan<- models.Notification, payload models.InputChangedParams) {
	sendNotification(ns, models.NotificationInputChanged, payload)
}

func InputSelected(ns chan<- models.Notification, input int, selected bool) {
	sendNotification(ns, models.NotificationInputSelected, models.InputSelectedParams{
		Input:    input,
		Selected: selected,
	})
}

func InputNumber(ns chan<- models.Notification, input int) {
	sendNotification(ns, models.NotificationInputNumber, models.InputNumberParams{Input: input})
}

func LampHours(ns chan<- models.Notification, hours int) {
	sendNotification(ns, models.NotificationLampHours, models.LampHoursParams{Hours: hours})
}
