// Copyright 2026 The httpretry Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

/*
Package retrytest provides deterministic test doubles for exercising
retrying transports without a network or a real clock.

Transport is a fake inner transport that answers each target URL with a
scripted sequence of replies. Once a sequence is used up, its last reply
is repeated for every further request:

	fake := &retrytest.Transport{}
	fake.Sequence("http://svc/items",
		retrytest.Reply{Status: 429, RetryAfter: "1"},
		retrytest.Reply{Status: 200, Body: "ok"})

SleepRecorder and WaitRecorder stand in for the wait seams of
httpretry.Transport and httpretry.ContextTransport, recording each wait
instead of performing it:

	var sleeps retrytest.SleepRecorder
	t := &httpretry.Transport{Inner: fake, Sleep: sleeps.Sleep}
*/
package retrytest
