package main

import "net/http"

// servePage serves the single-file demo client.
func servePage(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(demoPage))
}

// demoPage mounts the counter and activity views over one WebSocket and
// renders their update frames. Open it in several windows: every one
// binds to the same board.
const demoPage = `<!doctype html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>tether demo</title>
<style>
  body { font-family: ui-monospace, monospace; background: #101418; color: #d8dee4;
         max-width: 40rem; margin: 3rem auto; padding: 0 1rem; }
  h1 { font-size: 1.1rem; letter-spacing: 0.3em; }
  .card { background: #161c22; border: 1px solid #242c34; border-radius: 6px;
          padding: 1rem 1.25rem; margin: 1rem 0; }
  .card.dimmed { opacity: 0.4; }
  #count { font-size: 2.5rem; min-width: 3ch; display: inline-block; }
  button { background: #242c34; color: inherit; border: 1px solid #323c46;
           border-radius: 4px; padding: 0.4rem 0.9rem; font: inherit; cursor: pointer; }
  button:hover { background: #2c3640; }
  input { background: #0c1014; color: inherit; border: 1px solid #323c46;
          border-radius: 4px; padding: 0.4rem 0.6rem; font: inherit; width: 60%; }
  ul { list-style: none; padding: 0; margin: 0.5rem 0 0; }
  li { padding: 0.15rem 0; border-bottom: 1px dotted #242c34; }
  #status { float: right; font-size: 0.8rem; }
  #status.ok { color: #7cbf8c; }
  #status.down { color: #bf7c7c; }
  #error { color: #bf7c7c; min-height: 1.2rem; font-size: 0.85rem; }
</style>
</head>
<body>
<h1>TETHER <span id="status" class="down">connecting</span></h1>

<div class="card">
  <span id="count">-</span>
  <button id="inc">+1</button>
  <button id="dec">-1</button>
</div>

<div class="card" id="feedcard">
  <form id="noteform">
    <input id="notetext" placeholder="leave a note" autocomplete="off">
    <button type="submit">send</button>
    <button type="button" id="pausefeed">pause feed</button>
  </form>
  <ul id="feed"></ul>
</div>

<p id="error"></p>

<script>
(function () {
  "use strict";

  var ws = null;
  var seq = 0;
  var feedMounted = true;

  var el = function (id) { return document.getElementById(id); };

  function send(frame) {
    if (ws && ws.readyState === WebSocket.OPEN) {
      ws.send(JSON.stringify(frame));
    }
  }

  function sendEvent(view, name, data) {
    seq += 1;
    send({ type: "event", view: view, event: name, data: data, seq: seq });
  }

  function setStatus(ok) {
    var s = el("status");
    s.textContent = ok ? "live" : "reconnecting";
    s.className = ok ? "ok" : "down";
  }

  function render(view, data) {
    if (view === "counter") {
      el("count").textContent = data.count;
    } else if (view === "activity") {
      var feed = el("feed");
      feed.textContent = "";
      (data.entries || []).forEach(function (entry) {
        var li = document.createElement("li");
        li.textContent = entry;
        feed.appendChild(li);
      });
    }
  }

  function connect() {
    var scheme = location.protocol === "https:" ? "wss://" : "ws://";
    ws = new WebSocket(scheme + location.host + "/live");

    ws.onopen = function () {
      setStatus(true);
      send({ type: "mount", view: "counter" });
      if (feedMounted) {
        send({ type: "mount", view: "activity" });
      }
    };

    ws.onmessage = function (msg) {
      var frame = JSON.parse(msg.data);
      if (frame.type === "update") {
        render(frame.view, frame.data || {});
      } else if (frame.type === "error") {
        el("error").textContent = frame.code + ": " + frame.message;
      }
    };

    ws.onclose = function () {
      setStatus(false);
      setTimeout(connect, 1000);
    };
  }

  el("inc").onclick = function () { sendEvent("counter", "increment"); };
  el("dec").onclick = function () { sendEvent("counter", "decrement"); };

  el("noteform").onsubmit = function (e) {
    e.preventDefault();
    var input = el("notetext");
    if (input.value.trim() !== "") {
      sendEvent("activity", "note", { text: input.value });
      input.value = "";
    }
  };

  el("pausefeed").onclick = function () {
    feedMounted = !feedMounted;
    el("feedcard").className = feedMounted ? "card" : "card dimmed";
    el("pausefeed").textContent = feedMounted ? "pause feed" : "resume feed";
    if (feedMounted) {
      send({ type: "mount", view: "activity" });
    } else {
      send({ type: "unmount", view: "activity" });
    }
  };

  setInterval(function () { send({ type: "ping" }); }, 25000);

  connect();
})();
</script>
</body>
</html>
`
