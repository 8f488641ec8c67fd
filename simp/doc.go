/*
Copyright (c) Facebook, Inc. and its affiliates.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

/*
Package simp implements a transport-agnostic clock synchronization engine
based on the averaging method described in Simpson (2002), "A Stream-based
Time Synchronization Technique For Networked Computer Games", with a
corrected delta calculation.

Compared to NTP it's a simpler and less accurate algorithm that works over
any byte transport, including streams. Accuracies well below 1ms are
achievable on a stable network. The main limitation is that round-trip time
is assumed to be symmetric: if the forward trip time differs from the
return trip time, an error is induced equal to the difference in trip
times. That asymmetry is not correctable from the data available.

The engine never opens sockets, spawns timers or touches a filesystem.
You bring the transport, the storage and the sleeping; those four
capabilities are expressed by the Syncer interface. AttemptSync drives one
round of sampling and statistical reduction against a Syncer, Answer
implements the server side of the exchange.

If the local clock goes backward during a synchronization, the affected
sample is discarded; this may cause the sync attempt to come back without
a confident result, especially with the samples count lowered to its
minimum of 3. Handle that outcome by retrying: the sync will proceed
correctly once the clock is stable.
*/
package simp
